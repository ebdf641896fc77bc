package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"office-agent/internal/scrape/domain"
	"office-agent/internal/scrape/usecase"
	"office-agent/pkg/scraper"

	"github.com/gin-gonic/gin"
)

// ScraperHandler handles web scraping requests
type ScraperHandler struct {
	scrapeUsecase usecase.ScrapeUsecase
}

// NewScraperHandler creates a new ScraperHandler
func NewScraperHandler(scrapeUsecase usecase.ScrapeUsecase) *ScraperHandler {
	return &ScraperHandler{scrapeUsecase: scrapeUsecase}
}

// RegisterRoutes mounts the scraper routes on an authenticated group
func (h *ScraperHandler) RegisterRoutes(api *gin.RouterGroup) {
	s := api.Group("/scraper")
	{
		s.POST("/scrape", h.Scrape)
		s.POST("/scrape-multiple", h.ScrapeMultiple)
		s.GET("/jobs", h.ListJobs)
		s.GET("/jobs/:id", h.GetJob)
		s.DELETE("/jobs/:id", h.DeleteJob)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, scraper.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrJobRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Scrape fetches one page
// POST /api/scraper/scrape
func (h *ScraperHandler) Scrape(c *gin.Context) {
	var req struct {
		URL       string            `json:"url" binding:"required"`
		Selectors map[string]string `json:"selectors"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.scrapeUsecase.Scrape(c.Request.Context(), c.GetString("userID"), req.URL, req.Selectors)
	if err != nil {
		body := gin.H{"error": err.Error()}
		if job != nil {
			body["job_id"] = job.ID
		}
		c.JSON(statusFor(err), body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"job_id":  job.ID,
		"data":    job.ResultData,
	})
}

// ScrapeMultiple fetches several pages with the same selectors
// POST /api/scraper/scrape-multiple
func (h *ScraperHandler) ScrapeMultiple(c *gin.Context) {
	var req struct {
		URLs      []string          `json:"urls" binding:"required,min=1"`
		Selectors map[string]string `json:"selectors"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.scrapeUsecase.ScrapeMultiple(c.Request.Context(), c.GetString("userID"), req.URLs, req.Selectors)
	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// ListJobs lists recent scrape jobs
// GET /api/scraper/jobs?limit=50
func (h *ScraperHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.scrapeUsecase.List(c.GetString("userID"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetJob returns one scrape job with its result
// GET /api/scraper/jobs/:id
func (h *ScraperHandler) GetJob(c *gin.Context) {
	job, err := h.scrapeUsecase.Get(c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob removes a finished scrape job
// DELETE /api/scraper/jobs/:id
func (h *ScraperHandler) DeleteJob(c *gin.Context) {
	if err := h.scrapeUsecase.Delete(c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Scrape job deleted successfully"})
}
