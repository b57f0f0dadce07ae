package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/common"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/leaderboard"
	"hivefest.ru/honey-server/internal/features/profiles"
	"hivefest.ru/honey-server/internal/features/questions"
)

// Handler обрабатывает запросы /api/*.
type Handler struct {
	profiles    *profiles.Service
	honey       *honey.Service
	questions   *questions.Service
	leaderboard *leaderboard.Service
}

type answerRequest struct {
	Answer *int `json:"answer" binding:"required"`
}

// me: GET /api/me: профиль с исправленным дневным счётчиком.
func (h *Handler) me(c *gin.Context) {
	userID := currentUserID(c)
	ctx := c.Request.Context()

	if _, err := h.honey.State(ctx, userID); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "userId": userID, "profile": p})
}

// addHoney: POST /api/add-honey.
func (h *Handler) addHoney(c *gin.Context) {
	res, err := h.honey.AddHoney(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"reward":     res.Reward,
		"honey":      res.Honey,
		"todayHoney": res.TodayHoney,
		"totalHoney": res.TotalHoney,
	})
}

// question: GET /api/question.
func (h *Handler) question(c *gin.Context) {
	q, err := h.questions.Current(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "question": q})
}

// changeQuestion: POST /api/change-question.
func (h *Handler) changeQuestion(c *gin.Context) {
	q, err := h.questions.Change(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "question": q})
}

// answer: POST /api/answer {"answer": 42}.
func (h *Handler) answer(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidAnswer)
		return
	}

	res, err := h.questions.Answer(c.Request.Context(), currentUserID(c), *req.Answer)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{
		"ok":       true,
		"correct":  res.Correct,
		"given":    res.Given,
		"expected": res.Expected,
		"question": res.Next,
	}
	if res.Reward != nil {
		body["reward"] = res.Reward.Reward
		body["honey"] = res.Reward.Honey
		body["todayHoney"] = res.Reward.TodayHoney
		body["totalHoney"] = res.Reward.TotalHoney
	}
	c.JSON(http.StatusOK, body)
}

// top: GET /api/leaderboard?metric=honey.
func (h *Handler) top(c *gin.Context) {
	metric, err := leaderboard.ParseMetric(c.Query("metric"))
	if err != nil {
		h.fail(c, err)
		return
	}

	items, err := h.leaderboard.Top(c.Request.Context(), metric)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "metric": metric, "items": items})
}

// fail переводит ошибку в HTTP-ответ.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		abortJSON(c, http.StatusNotFound, "Игрок не найден")
	case errors.Is(err, common.ErrInvalidAnswer),
		errors.Is(err, common.ErrNoQuestion),
		errors.Is(err, common.ErrUnknownMetric):
		abortJSON(c, http.StatusBadRequest, errorMessage(err))
	default:
		log.WithError(err).WithFields(log.Fields{
			"request_id": c.GetString(ctxRequestID),
			"user_id":    currentUserID(c),
			"path":       c.FullPath(),
		}).Error("Ошибка обработки запроса")
		abortJSON(c, http.StatusInternalServerError, "Ошибка сервера")
	}
}

// errorMessage: текст sentinel-ошибки без подробностей обёрток.
func errorMessage(err error) string {
	for _, known := range []error{common.ErrInvalidAnswer, common.ErrNoQuestion, common.ErrUnknownMetric} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}
