package handler

import (
	"errors"
	"net/http"
	"strings"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// ProxyHandler fronts the weather, Zillow and Bridge upstreams.
type ProxyHandler struct {
	weather *service.WeatherClient
	zillow  *service.ZillowClient
	bridge  *service.BridgeClient
	log     *logger.Logger
}

func NewProxyHandler(weather *service.WeatherClient, zillow *service.ZillowClient, bridge *service.BridgeClient, log *logger.Logger) *ProxyHandler {
	return &ProxyHandler{weather: weather, zillow: zillow, bridge: bridge, log: log.With("handler", "ProxyHandler")}
}

func (h *ProxyHandler) WeatherHistory(c *gin.Context) {
	var req struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Latitude == nil || req.Longitude == nil {
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}
	days, err := h.weather.History(c.Request.Context(), *req.Latitude, *req.Longitude)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if len(days) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{})
		return
	}
	c.JSON(http.StatusOK, service.Summarize(days))
}

// ZillowGet has nothing to look up without an address.
func (h *ProxyHandler) ZillowGet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

func (h *ProxyHandler) ZillowSearch(c *gin.Context) {
	var req struct {
		Address      string `json:"address"`
		CityStateZip string `json:"citystatezip"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	body, err := h.zillow.Search(c.Request.Context(), req.Address, req.CityStateZip)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *ProxyHandler) BridgeParcel(c *gin.Context) {
	address := c.Query("address")
	if strings.TrimSpace(address) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}
	parcel, err := h.bridge.Parcel(c.Request.Context(), address)
	if errors.Is(err, service.ErrDataUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "parcel data service unavailable"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parcel_data": parcel})
}
