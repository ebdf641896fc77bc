package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"office-agent/internal/cron/domain"
	"office-agent/internal/cron/scheduler"
	"office-agent/internal/cron/usecase"

	"github.com/gin-gonic/gin"
)

// CronHandler handles scheduled job HTTP requests
type CronHandler struct {
	cronUsecase usecase.CronUsecase
}

// NewCronHandler creates a new CronHandler
func NewCronHandler(cronUsecase usecase.CronUsecase) *CronHandler {
	return &CronHandler{
		cronUsecase: cronUsecase,
	}
}

// RegisterRoutes mounts the cron routes on an authenticated group
func (h *CronHandler) RegisterRoutes(api *gin.RouterGroup) {
	cron := api.Group("/cron")
	{
		cron.POST("", h.CreateJob)
		cron.POST("/create", h.CreateJob)
		cron.GET("", h.GetJobs)
		cron.GET("/jobs", h.GetJobs)
		cron.GET("/active", h.GetActiveJobs)
		cron.GET("/:id", h.GetJobByID)
		cron.PUT("/:id", h.UpdateJob)
		cron.POST("/:id/start", h.StartJob)
		cron.POST("/:id/stop", h.StopJob)
		cron.DELETE("/:id", h.DeleteJob)
	}
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrCronJobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, scheduler.ErrInvalidSchedule):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// CreateJob creates and schedules a job
// POST /api/cron/create
func (h *CronHandler) CreateJob(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.CreateJobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.cronUsecase.CreateJob(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Cron job created successfully",
		"job":     job,
	})
}

// GetJobs returns all jobs for the authenticated user
// GET /api/cron?enabled=true
func (h *CronHandler) GetJobs(c *gin.Context) {
	userID := c.GetString("userID")

	var enabled *bool
	if raw := c.Query("enabled"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			enabled = &v
		}
	}

	jobs, err := h.cronUsecase.ListJobs(userID, enabled)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if jobs == nil {
		jobs = []*domain.CronJob{}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetActiveJobs lists the caller's ticking registry identifiers
// GET /api/cron/active
func (h *CronHandler) GetActiveJobs(c *gin.Context) {
	active := h.cronUsecase.ListActive(c.GetString("userID"))
	if active == nil {
		active = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"active": active, "count": len(active)})
}

// GetJobByID returns a specific job
// GET /api/cron/:id
func (h *CronHandler) GetJobByID(c *gin.Context) {
	job, err := h.cronUsecase.GetJob(c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// UpdateJob updates an existing job
// PUT /api/cron/:id
func (h *CronHandler) UpdateJob(c *gin.Context) {
	var updates usecase.UpdateJobInput
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.cronUsecase.UpdateJob(c.Request.Context(), c.GetString("userID"), c.Param("id"), updates)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cron job updated successfully", "job": job})
}

// StartJob enables a job
// POST /api/cron/:id/start
func (h *CronHandler) StartJob(c *gin.Context) {
	job, err := h.cronUsecase.StartJob(c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cron job started", "job": job})
}

// StopJob disables a job
// POST /api/cron/:id/stop
func (h *CronHandler) StopJob(c *gin.Context) {
	job, err := h.cronUsecase.StopJob(c.GetString("userID"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cron job stopped", "job": job})
}

// DeleteJob removes a job
// DELETE /api/cron/:id
func (h *CronHandler) DeleteJob(c *gin.Context) {
	if err := h.cronUsecase.DeleteJob(c.GetString("userID"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cron job deleted successfully"})
}
