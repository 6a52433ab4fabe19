package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/domain"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxUser         = "user"
)

// RequestID берёт id запроса из заголовка или генерирует новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger пишет одну строку на запрос
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		if status >= http.StatusInternalServerError {
			ev = log.Error()
		}
		userID := ""
		if u, ok := currentUser(c); ok {
			userID = u.ID
		}
		ev.Str("request_id", c.GetString(ctxRequestID)).
			Str("user_id", userID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

// Recovery превращает панику обработчика в 500
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("request_id", c.GetString(ctxRequestID)).
					Interface("panic", rec).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
			}
		}()
		c.Next()
	}
}

// Auth проверяет bearer-токен и кладёт пользователя в контекст
func (s *Server) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authorized, no token"})
			return
		}
		u, err := s.users.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			s.abortWithError(c, err)
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := currentUser(c)
		if !ok || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "not authorized as an admin"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok
}

// mustUser только для маршрутов за Auth
func mustUser(c *gin.Context) *domain.User {
	u, _ := currentUser(c)
	return u
}
