package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"office-agent/internal/inbox/domain"
	"office-agent/internal/inbox/usecase"
	maildomain "office-agent/internal/mail/domain"

	"github.com/gin-gonic/gin"
)

// InboxHandler serves the triaged inbox, its drafts and IMAP settings
type InboxHandler struct {
	inboxUsecase usecase.InboxUsecase
}

// NewInboxHandler creates a new InboxHandler
func NewInboxHandler(inboxUsecase usecase.InboxUsecase) *InboxHandler {
	return &InboxHandler{inboxUsecase: inboxUsecase}
}

// RegisterRoutes mounts the inbox routes on an authenticated group
func (h *InboxHandler) RegisterRoutes(api *gin.RouterGroup) {
	inbox := api.Group("/email-inbox")
	{
		inbox.GET("/imap-config", h.GetImapConfigs)
		inbox.POST("/imap-config", h.SaveImapConfig)
		inbox.POST("/scan", h.Scan)

		inbox.GET("/emails", h.ListEmails)
		inbox.GET("/emails/:id", h.GetEmail)
		inbox.PATCH("/emails/:id", h.UpdateEmail)
		inbox.GET("/search", h.Search)

		inbox.GET("/drafts", h.ListDrafts)
		inbox.PATCH("/drafts/:id", h.UpdateDraft)
		inbox.POST("/drafts/:id/send", h.SendDraft)
		inbox.POST("/drafts/:id/reject", h.RejectDraft)

		inbox.GET("/stats", h.Stats)
	}
}

// StatusFor maps inbox errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmailNotFound), errors.Is(err, domain.ErrDraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDraftAlreadySent),
		errors.Is(err, domain.ErrDraftRejected),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNoImapConfig), errors.Is(err, maildomain.ErrNoEmailConfig):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(StatusFor(err), gin.H{"error": err.Error()})
}

// GetImapConfigs lists the user's mailbox logins (passwords are never returned)
// GET /api/email-inbox/imap-config
func (h *InboxHandler) GetImapConfigs(c *gin.Context) {
	configs, err := h.inboxUsecase.GetImapConfigs(c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// SaveImapConfig creates or updates a mailbox login
// POST /api/email-inbox/imap-config
func (h *InboxHandler) SaveImapConfig(c *gin.Context) {
	var input usecase.ImapConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.inboxUsecase.SaveImapConfig(c.GetString("userID"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// Scan runs the triage pipeline now
// POST /api/email-inbox/scan
func (h *InboxHandler) Scan(c *gin.Context) {
	result, err := h.inboxUsecase.ScanInbox(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListEmails lists triaged messages
// GET /api/email-inbox/emails?unread=true&priority=urgent&category=request&archived=false&limit=50
func (h *InboxHandler) ListEmails(c *gin.Context) {
	filter := domain.EmailFilter{
		UnreadOnly: c.Query("unread") == "true",
		Priority:   domain.Priority(c.Query("priority")),
		Category:   domain.Category(c.Query("category")),
	}
	if archived := c.Query("archived"); archived != "" {
		v := archived == "true"
		filter.Archived = &v
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	emails, err := h.inboxUsecase.ListEmails(c.GetString("userID"), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails, "count": len(emails)})
}

// GetEmail returns one message with its latest draft
// GET /api/email-inbox/emails/:id
func (h *InboxHandler) GetEmail(c *gin.Context) {
	detail, err := h.inboxUsecase.GetEmail(c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateEmail sets read, starred or archived
// PATCH /api/email-inbox/emails/:id
func (h *InboxHandler) UpdateEmail(c *gin.Context) {
	var flags domain.FlagUpdate
	if err := c.ShouldBindJSON(&flags); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.inboxUsecase.UpdateEmailFlags(c.GetString("userID"), c.Param("id"), flags)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

// Search ranks recent messages against a typo-tolerant query
// GET /api/email-inbox/search?q=invoice&limit=20
func (h *InboxHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	results, err := h.inboxUsecase.SearchEmails(c.GetString("userID"), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ListDrafts lists drafts in one status
// GET /api/email-inbox/drafts?status=pending
func (h *InboxHandler) ListDrafts(c *gin.Context) {
	status := domain.DraftStatus(c.DefaultQuery("status", string(domain.DraftPending)))

	drafts, err := h.inboxUsecase.ListDrafts(c.GetString("userID"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts, "count": len(drafts)})
}

// UpdateDraft edits, approves or rejects a draft
// PATCH /api/email-inbox/drafts/:id
func (h *InboxHandler) UpdateDraft(c *gin.Context) {
	var patch usecase.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.inboxUsecase.UpdateDraft(c.Request.Context(), c.GetString("userID"), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// SendDraft sends a draft through the user's default SMTP config
// POST /api/email-inbox/drafts/:id/send
func (h *InboxHandler) SendDraft(c *gin.Context) {
	draft, err := h.inboxUsecase.SendApprovedDraft(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message_id": draft.SentMessageID,
		"draft":      draft,
	})
}

// RejectDraft
// POST /api/email-inbox/drafts/:id/reject
func (h *InboxHandler) RejectDraft(c *gin.Context) {
	draft, err := h.inboxUsecase.RejectDraft(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// Stats returns dashboard counters
// GET /api/email-inbox/stats
func (h *InboxHandler) Stats(c *gin.Context) {
	stats, err := h.inboxUsecase.Stats(c.GetString("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
