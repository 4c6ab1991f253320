package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lawn-engine/internal/engine"
	"lawn-engine/internal/logger"
	"lawn-engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const invalidDateMessage = "Failed because of wrong date format or date."

type LawnEngineHandler struct {
	svc *service.LawnEngineService
	log *logger.Logger
}

func NewLawnEngineHandler(svc *service.LawnEngineService, log *logger.Logger) *LawnEngineHandler {
	return &LawnEngineHandler{svc: svc, log: log.With("handler", "LawnEngineHandler")}
}

type runBody struct {
	LawnID    interface{}     `json:"lawn_id"`
	StartDate string          `json:"start_date"`
	UserInput json.RawMessage `json:"user_input"`
}

func (h *LawnEngineHandler) bindRun(c *gin.Context) (service.RunRequest, bool) {
	var body runBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.RunRequest{}, false
	}
	lawnID, err := service.ParseLawnID(body.LawnID)
	if err != nil {
		respondError(c, h.log, err)
		return service.RunRequest{}, false
	}
	return service.RunRequest{LawnID: lawnID, StartDate: body.StartDate, UserInput: body.UserInput}, true
}

// Run executes the engine synchronously and returns the report.
func (h *LawnEngineHandler) Run(c *gin.Context) {
	req, ok := h.bindRun(c)
	if !ok {
		return
	}
	report, err := h.svc.Run(c.Request.Context(), req)
	if errors.Is(err, engine.ErrInvalidDate) {
		h.log.Info("rejected start date", "lawn_id", req.LawnID, "start_date", req.StartDate)
		c.JSON(http.StatusOK, invalidDateMessage)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunAsync queues the run for the worker pool.
func (h *LawnEngineHandler) RunAsync(c *gin.Context) {
	req, ok := h.bindRun(c)
	if !ok {
		return
	}
	job, err := h.svc.Enqueue(c.Request.Context(), req, service.SourceAPI)
	if errors.Is(err, engine.ErrInvalidDate) {
		c.JSON(http.StatusOK, invalidDateMessage)
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

// UploadCSV accepts a multipart "file" field or a raw text/csv body.
func (h *LawnEngineHandler) UploadCSV(c *gin.Context) {
	var src io.Reader = c.Request.Body
	if fh, err := c.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
			return
		}
		defer f.Close()
		src = f
	}
	res, err := h.svc.EnqueueCSV(c.Request.Context(), src)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

// Report returns the lawn's latest run, or {} when the lawn has never been run.
func (h *LawnEngineHandler) Report(c *gin.Context) {
	lawnID, ok := uintParam(c, "lawn_id")
	if !ok {
		return
	}
	report, err := h.svc.Report(c.Request.Context(), lawnID)
	if errors.Is(err, service.ErrRunNotFound) {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *LawnEngineHandler) Delete(c *gin.Context) {
	lawnID, ok := uintParam(c, "lawn_id")
	if !ok {
		return
	}
	n, err := h.svc.Delete(c.Request.Context(), lawnID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "done", "deleted": n})
}

func (h *LawnEngineHandler) Job(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job id must be a uuid"})
		return
	}
	job, err := h.svc.Job(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *LawnEngineHandler) JobStats(c *gin.Context) {
	stats, err := h.svc.JobStats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var total int64
	for _, n := range stats {
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"by_status": stats, "total": total})
}

// CheckWeather answers true or false for whether weather data is stored for the lawn.
func (h *LawnEngineHandler) CheckWeather(c *gin.Context) {
	var body struct {
		LawnID interface{} `json:"lawn_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.LawnID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lawn ID not provided"})
		return
	}
	lawnID, err := service.ParseLawnID(body.LawnID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ok, err := h.svc.CheckWeather(c.Request.Context(), lawnID)
	if errors.Is(err, service.ErrLawnNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lawn Not Found"})
		return
	}
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ok)
}
