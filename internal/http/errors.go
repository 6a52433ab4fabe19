package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/service"
)

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, payment.ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError внутренние ошибки логируются, клиенту уходит общий текст
func (s *Server) respondError(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.log.Error().Err(err).Str("request_id", c.GetString(ctxRequestID)).Str("path", c.FullPath()).Msg("request failed")
		msg = "internal server error"
	case http.StatusBadGateway:
		s.log.Warn().Err(err).Str("request_id", c.GetString(ctxRequestID)).Msg("payment gateway failed")
		msg = "payment gateway unavailable"
	}
	c.JSON(status, gin.H{"message": msg})
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	s.respondError(c, err)
	c.Abort()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

type messageResponse struct {
	Message string `json:"message"`
}
