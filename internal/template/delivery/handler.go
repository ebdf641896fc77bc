package delivery

import (
	"errors"
	"net/http"

	maildelivery "office-agent/internal/mail/delivery"
	"office-agent/internal/template/domain"
	"office-agent/internal/template/usecase"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the form boundary and headers around the file
const multipartOverhead = 1 << 20

// TemplateHandler handles email template and attachment requests
type TemplateHandler struct {
	templateUsecase usecase.TemplateUsecase
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateUsecase usecase.TemplateUsecase) *TemplateHandler {
	return &TemplateHandler{templateUsecase: templateUsecase}
}

// RegisterRoutes mounts the template routes on an authenticated group
func (h *TemplateHandler) RegisterRoutes(api *gin.RouterGroup) {
	templates := api.Group("/email-templates")
	{
		templates.GET("", h.List)
		templates.POST("", h.Create)
		templates.POST("/generate", h.Generate)
		templates.POST("/upload-attachment", h.UploadAttachment)
		templates.GET("/attachments/:id", h.DownloadAttachment)
		templates.PUT("/:id", h.Update)
		templates.DELETE("/:id", h.Delete)
		templates.POST("/:id/use", h.Use)
	}
}

func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrAttachmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFile):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrFileTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, usecase.ErrNoProvider):
		return http.StatusServiceUnavailable
	default:
		// mail errors from Use keep their own mapping
		return maildelivery.StatusFor(err)
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// List returns the user's templates
// GET /api/email-templates?category=sales
func (h *TemplateHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	templates, err := h.templateUsecase.List(userID, c.Query("category"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "total": len(templates)})
}

// Create stores a new template
// POST /api/email-templates
func (h *TemplateHandler) Create(c *gin.Context) {
	userID := c.GetString("userID")

	var input usecase.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateUsecase.Create(userID, input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// Update patches a template
// PUT /api/email-templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	userID := c.GetString("userID")

	var input usecase.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.templateUsecase.Update(userID, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// Delete removes a template
// DELETE /api/email-templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.templateUsecase.Delete(userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// Use fills a template and, when recipients are given, sends it
// POST /api/email-templates/:id/use
func (h *TemplateHandler) Use(c *gin.Context) {
	userID := c.GetString("userID")

	var input usecase.UseInput
	// an empty body only records the use
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.templateUsecase.Use(c.Request.Context(), userID, c.Param("id"), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Generate drafts a template with the AI provider
// POST /api/email-templates/generate
func (h *TemplateHandler) Generate(c *gin.Context) {
	var req struct {
		Category string `json:"category" binding:"required"`
		Context  string `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generated, err := h.templateUsecase.Generate(c.Request.Context(), req.Category, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, generated)
}

// UploadAttachment stores one multipart file under the "file" field
// POST /api/email-templates/upload-attachment
func (h *TemplateHandler) UploadAttachment(c *gin.Context) {
	userID := c.GetString("userID")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, usecase.MaxAttachmentSize+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	attachment, err := h.templateUsecase.SaveAttachment(userID, usecase.Upload{
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// DownloadAttachment streams an uploaded attachment
// GET /api/email-templates/attachments/:id
func (h *TemplateHandler) DownloadAttachment(c *gin.Context) {
	userID := c.GetString("userID")

	attachment, err := h.templateUsecase.GetAttachment(userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.FileAttachment(attachment.FilePath, attachment.Filename)
}
