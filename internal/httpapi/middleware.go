package httpapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"hivefest.ru/honey-server/internal/bot/middleware"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUserID       = "user_id"
)

// requestID присваивает запросу ID: берёт входящий X-Request-ID, если это UUID,
// иначе генерирует новый.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// accessLog пишет одну строку лога на запрос.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": c.GetString(ctxRequestID),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Round(time.Microsecond).String(),
			"ip":         c.ClientIP(),
		})
		if userID, ok := c.Get(ctxUserID); ok {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("HTTP запрос")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.Warn("HTTP запрос")
		default:
			entry.Debug("HTTP запрос")
		}
	}
}

// recovery превращает панику в обработчике в ответ 500.
func recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"component":  "http",
			"request_id": c.GetString(ctxRequestID),
			"panic":      fmt.Sprintf("%v", recovered),
			"stack":      string(debug.Stack()),
		}).Error("ПАНИКА в HTTP обработчике — восстановлено")
		abortJSON(c, http.StatusInternalServerError, "Ошибка сервера")
	})
}

// rateLimit ограничивает частоту запросов с одного IP.
func rateLimit(rl *middleware.RateLimiter, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			abortJSON(c, http.StatusTooManyRequests, "Слишком много запросов, попробуй позже")
			return
		}
		c.Next()
	}
}

// requireAuth проверяет Bearer-токен. Каждая неудача с одного IP
// увеличивает задержку перед ответом 401.
func requireAuth(tokens *TokenIssuer, failures *middleware.FailureTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		userID, err := tokens.Verify(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			n := failures.Fail(ip)
			log.WithFields(log.Fields{
				"request_id": c.GetString(ctxRequestID),
				"ip":         ip,
				"failures":   n,
			}).WithError(err).Warn("Отклонён запрос без действительного токена")

			if err := failures.Wait(c.Request.Context(), ip); err != nil {
				c.Abort()
				return
			}
			abortJSON(c, http.StatusUnauthorized, "Не авторизован")
			return
		}

		failures.Reset(ip)
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "message": message})
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}
