package controllers

import (
	"errors"
	"net/http"

	"github.com/address-completer/app/middleware"
	"github.com/address-completer/app/responses"
	"github.com/address-completer/internal/amap"
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, responses.NewErrorResponse(code, message, details, middleware.RequestIDFrom(c)))
}

// respondProviderError maps gateway errors to HTTP statuses.
func respondProviderError(c *gin.Context, err error) {
	_ = c.Error(err)

	var serviceErr *amap.ServiceError
	switch {
	case errors.Is(err, amap.ErrQuotaExceeded):
		respondError(c, http.StatusTooManyRequests, responses.ErrCodeQuotaExceeded, err.Error(), nil)
	case errors.Is(err, amap.ErrNotFound):
		respondError(c, http.StatusNotFound, responses.ErrCodeNotFound, "no result", nil)
	case errors.As(err, &serviceErr):
		respondError(c, http.StatusBadGateway, responses.ErrCodeProviderError, serviceErr.Message,
			gin.H{"code": serviceErr.Code})
	default:
		respondError(c, http.StatusInternalServerError, responses.ErrCodeInternal, err.Error(), nil)
	}
}
