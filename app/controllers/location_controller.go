package controllers

import (
	"net/http"
	"strings"

	"github.com/address-completer/app/requests"
	"github.com/address-completer/app/responses"
	"github.com/address-completer/app/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LocationController exposes the provider lookups.
type LocationController struct {
	locationService *services.LocationService
	logger          *zap.Logger
}

func NewLocationController(locationService *services.LocationService, logger *zap.Logger) *LocationController {
	return &LocationController{
		locationService: locationService,
		logger:          logger,
	}
}

// Tips passes input suggestions through unchanged.
func (lc *LocationController) Tips(c *gin.Context) {
	keywords := strings.TrimSpace(c.Query("keywords"))
	if keywords == "" {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "keywords is required", nil)
		return
	}

	tips, err := lc.locationService.Tips(c.Request.Context(), keywords)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, tips)
}

// Geocode passes forward-geocoding candidates through unchanged.
func (lc *LocationController) Geocode(c *gin.Context) {
	address := strings.TrimSpace(c.Query("address"))
	if address == "" {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "address is required", nil)
		return
	}

	geocodes, err := lc.locationService.Geocode(c.Request.Context(), address, c.Query("city"))
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(geocodes), "geocodes": geocodes})
}

func (lc *LocationController) MatchPlace(c *gin.Context) {
	var req requests.MatchPlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "invalid request: "+err.Error(), nil)
		return
	}

	resp, err := lc.locationService.MatchPlace(c.Request.Context(), req)
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (lc *LocationController) CurrentCity(c *gin.Context) {
	city, err := lc.locationService.CurrentCity(c.Request.Context())
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"city": city})
}

func (lc *LocationController) CurrentCityInfo(c *gin.Context) {
	info, err := lc.locationService.CurrentCityInfo(c.Request.Context())
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (lc *LocationController) Weather(c *gin.Context) {
	weather, err := lc.locationService.Weather(c.Request.Context(), c.Param("adcode"))
	if err != nil {
		respondProviderError(c, err)
		return
	}
	c.JSON(http.StatusOK, weather)
}

// ValidateKey always answers 200; an unusable key is valid=false.
func (lc *LocationController) ValidateKey(c *gin.Context) {
	var req requests.ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "invalid request: "+err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, lc.locationService.ValidateKey(c.Request.Context(), req.Key, req.Apply))
}

func (lc *LocationController) ValidateWalking(c *gin.Context) {
	var req requests.WalkingValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, responses.ErrCodeInvalidRequest, "invalid request: "+err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, lc.locationService.ValidateWalking(c.Request.Context(), req.Origin, req.Destination, req.MaxDistance))
}
