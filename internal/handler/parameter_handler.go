package handler

import (
	"net/http"

	"lawn-engine/internal/logger"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
)

type ParameterHandler struct {
	svc *service.ParameterService
	log *logger.Logger
}

func NewParameterHandler(svc *service.ParameterService, log *logger.Logger) *ParameterHandler {
	return &ParameterHandler{svc: svc, log: log.With("handler", "ParameterHandler")}
}

// ListParameters returns every active internal parameter.
func (h *ParameterHandler) ListParameters(c *gin.Context) {
	params, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameters": params})
}

func (h *ParameterHandler) GetParameter(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameter": p})
}

func (h *ParameterHandler) CreateParameter(c *gin.Context) {
	var in service.ParameterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"parameter": p})
}

// UpdateParameter serves PUT (full replace) and PATCH (partial).
func (h *ParameterHandler) UpdateParameter(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in service.ParameterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in, c.Request.Method == http.MethodPatch)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameter": p})
}

func (h *ParameterHandler) DeleteParameter(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DefaultParams lists name -> default_value for the active parameters.
func (h *ParameterHandler) DefaultParams(c *gin.Context) {
	values, err := h.svc.DefaultValues(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, values)
}
