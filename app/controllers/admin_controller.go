package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/address-completer/app/responses"
	"github.com/address-completer/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves statistics and cache management.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

func (ac *AdminController) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, ac.adminService.GetSystemStats(c.Request.Context()))
}

// GetQuota returns today's provider call counts and limits.
func (ac *AdminController) GetQuota(c *gin.Context) {
	c.JSON(http.StatusOK, ac.adminService.QuotaStats())
}

// InvalidateCache drops results of other parser versions,
// ?parser_version= defaulting to the running one.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	version, err := ac.adminService.InvalidateCache(c.Request.Context(), c.Query("parser_version"))
	if err != nil {
		ac.cacheError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "cache invalidated",
		Data:      gin.H{"parser_version": version},
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (ac *AdminController) ClearCache(c *gin.Context) {
	if err := ac.adminService.ClearCache(c.Request.Context()); err != nil {
		ac.cacheError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success:   true,
		Message:   "cache cleared",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (ac *AdminController) cacheError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNoCache) {
		respondError(c, http.StatusNotFound, responses.ErrCodeNotFound, err.Error(), nil)
		return
	}
	ac.logger.Error("Cache operation failed", zap.Error(err))
	respondError(c, http.StatusInternalServerError, responses.ErrCodeInternal, err.Error(), nil)
}
