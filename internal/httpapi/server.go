package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/bot/middleware"
	"hivefest.ru/honey-server/internal/features/honey"
	"hivefest.ru/honey-server/internal/features/leaderboard"
	"hivefest.ru/honey-server/internal/features/profiles"
	"hivefest.ru/honey-server/internal/features/questions"
)

// Deps: всё, что нужно роутеру.
type Deps struct {
	Profiles    *profiles.Service
	Honey       *honey.Service
	Questions   *questions.Service
	Leaderboard *leaderboard.Service

	Tokens          *TokenIssuer
	Limiter         *middleware.RateLimiter
	RateLimitWindow time.Duration
	Failures        *middleware.FailureTracker
}

// NewRouter собирает gin-роутер со всеми маршрутами.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(), recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	h := &Handler{
		profiles:    d.Profiles,
		honey:       d.Honey,
		questions:   d.Questions,
		leaderboard: d.Leaderboard,
	}

	api := r.Group("/api", rateLimit(d.Limiter, d.RateLimitWindow), requireAuth(d.Tokens, d.Failures))
	api.GET("/me", h.me)
	api.POST("/add-honey", h.addHoney)
	api.GET("/question", h.question)
	api.POST("/change-question", h.changeQuestion)
	api.POST("/answer", h.answer)
	api.GET("/leaderboard", h.top)

	r.NoRoute(func(c *gin.Context) {
		abortJSON(c, http.StatusNotFound, "Не найдено")
	})
	return r
}

// Server: HTTP-сервер API.
type Server struct {
	srv *http.Server
}

// NewServer создаёт сервер на addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}}
}

// Start слушает порт до Shutdown.
func (s *Server) Start() error {
	log.WithField("addr", s.srv.Addr).Info("HTTP API запущен")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
