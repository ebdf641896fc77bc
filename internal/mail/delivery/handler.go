package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"office-agent/internal/mail/domain"
	"office-agent/internal/mail/usecase"

	"github.com/gin-gonic/gin"
)

// MailHandler handles outgoing mail and SMTP configuration requests
type MailHandler struct {
	mailUsecase usecase.MailUsecase
}

// NewMailHandler creates a new MailHandler
func NewMailHandler(mailUsecase usecase.MailUsecase) *MailHandler {
	return &MailHandler{mailUsecase: mailUsecase}
}

// RegisterRoutes mounts the mail routes on an authenticated group
func (h *MailHandler) RegisterRoutes(api *gin.RouterGroup) {
	email := api.Group("/email")
	{
		email.POST("/send", h.Send)
		email.POST("/send-bulk", h.SendBulk)
		email.GET("/history", h.History)
	}

	configs := api.Group("/email-config")
	{
		configs.GET("", h.GetConfigs)
		configs.POST("", h.SaveConfig)
		configs.POST("/test", h.TestConfig)
		configs.DELETE("/:id", h.DeleteConfig)
	}
}

// StatusFor maps mail errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmailConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoEmailConfig):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

type sendRequest struct {
	To       stringList `json:"to" binding:"required"`
	Cc       stringList `json:"cc"`
	Subject  string     `json:"subject" binding:"required"`
	Body     string     `json:"body"`
	HTML     string     `json:"html"`
	ConfigID string     `json:"config_id"`
}

func (r sendRequest) toUsecase() usecase.SendRequest {
	return usecase.SendRequest{
		To:       r.To,
		Cc:       r.Cc,
		Subject:  r.Subject,
		Body:     r.Body,
		HTML:     r.HTML,
		ConfigID: r.ConfigID,
	}
}

// Send sends one email
// POST /api/email/send
func (h *MailHandler) Send(c *gin.Context) {
	userID := c.GetString("userID")

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.mailUsecase.Send(c.Request.Context(), userID, req.toUsecase())
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message_id": res.MessageID,
		"recipients": res.Recipients,
	})
}

// SendBulk sends several emails, reporting each outcome
// POST /api/email/send-bulk
func (h *MailHandler) SendBulk(c *gin.Context) {
	userID := c.GetString("userID")

	var req struct {
		Emails []sendRequest `json:"emails" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqs := make([]usecase.SendRequest, 0, len(req.Emails))
	for _, e := range req.Emails {
		reqs = append(reqs, e.toUsecase())
	}
	results := h.mailUsecase.SendBulk(c.Request.Context(), userID, reqs)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// History lists sent emails
// GET /api/email/history?limit=50
func (h *MailHandler) History(c *gin.Context) {
	userID := c.GetString("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	emails, err := h.mailUsecase.History(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

// GetConfigs lists the user's SMTP configs (passwords are never returned)
// GET /api/email-config
func (h *MailHandler) GetConfigs(c *gin.Context) {
	configs, err := h.mailUsecase.GetConfigs(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// SaveConfig creates or updates an SMTP config
// POST /api/email-config
func (h *MailHandler) SaveConfig(c *gin.Context) {
	var input usecase.ConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.mailUsecase.SaveConfig(c.GetString("userID"), input)
	if err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// TestConfig checks that the SMTP login works
// POST /api/email-config/test
func (h *MailHandler) TestConfig(c *gin.Context) {
	var req struct {
		ConfigID string `json:"config_id"`
	}
	_ = c.ShouldBindJSON(&req)

	if err := h.mailUsecase.TestConfig(c.Request.Context(), c.GetString("userID"), req.ConfigID); err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			// the login itself failed
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "SMTP connection successful"})
}

// DeleteConfig removes an SMTP config
// DELETE /api/email-config/:id
func (h *MailHandler) DeleteConfig(c *gin.Context) {
	if err := h.mailUsecase.DeleteConfig(c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(StatusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email config deleted"})
}
