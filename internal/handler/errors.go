package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto status codes. Internal details stay in the log.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInputValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrLawnNotFound),
		errors.Is(err, service.ErrRunNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrParameterNotFound),
		errors.Is(err, service.ErrParcelNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDataUnavailable):
		log.Warn("upstream data unavailable", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data service unavailable"})
	case errors.Is(err, service.ErrPersistence):
		log.Error("persistence failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lawn engine run failed"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return uint(v), true
}
