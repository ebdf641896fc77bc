package delivery

import (
	"errors"
	"net/http"

	"office-agent/internal/document/domain"
	"office-agent/internal/document/usecase"
	"office-agent/pkg/pdf"

	"github.com/gin-gonic/gin"
)

// PDFHandler handles PDF generation requests
type PDFHandler struct {
	documentUsecase usecase.DocumentUsecase
}

// NewPDFHandler creates a new PDFHandler
func NewPDFHandler(documentUsecase usecase.DocumentUsecase) *PDFHandler {
	return &PDFHandler{documentUsecase: documentUsecase}
}

// RegisterRoutes mounts the PDF routes on an authenticated group
func (h *PDFHandler) RegisterRoutes(api *gin.RouterGroup) {
	pdfs := api.Group("/pdf")
	{
		pdfs.POST("/generate", h.Generate)
		pdfs.POST("/generate-structured", h.GenerateStructured)
		pdfs.GET("", h.List)
		pdfs.GET("/list", h.List)
		pdfs.GET("/:id/download", h.Download)
		pdfs.DELETE("/:id", h.Delete)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPDFNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Generate renders a PDF
// POST /api/pdf/generate
func (h *PDFHandler) Generate(c *gin.Context) {
	var req struct {
		Title   string `json:"title" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.documentUsecase.Generate(c.GetString("userID"), req.Title, req.Content)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "pdf": file})
}

// GenerateStructured renders a titled document made of sections
// POST /api/pdf/generate-structured
func (h *PDFHandler) GenerateStructured(c *gin.Context) {
	var req struct {
		Title    string        `json:"title" binding:"required"`
		Sections []pdf.Section `json:"sections" binding:"required,min=1"`
		Filename string        `json:"filename"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.documentUsecase.GenerateStructured(c.GetString("userID"), req.Title, req.Filename, req.Sections)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "pdf": file})
}

// List returns the user's PDFs, newest first
// GET /api/pdf
func (h *PDFHandler) List(c *gin.Context) {
	files, err := h.documentUsecase.List(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfs": files})
}

// Download streams the PDF file
// GET /api/pdf/:id/download
func (h *PDFHandler) Download(c *gin.Context) {
	file, err := h.documentUsecase.Get(c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(file.FilePath, file.Filename)
}

// Delete removes the PDF and its file
// DELETE /api/pdf/:id
func (h *PDFHandler) Delete(c *gin.Context) {
	if err := h.documentUsecase.Delete(c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "PDF deleted"})
}
