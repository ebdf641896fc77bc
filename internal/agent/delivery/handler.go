package delivery

import (
	"errors"
	"net/http"
	"time"

	"office-agent/internal/agent/domain"
	"office-agent/internal/agent/usecase"
	"office-agent/pkg/ai"

	"github.com/gin-gonic/gin"
)

// AgentHandler serves the chat endpoint
type AgentHandler struct {
	agentUsecase usecase.AgentUsecase
}

// NewAgentHandler creates a new AgentHandler
func NewAgentHandler(agentUsecase usecase.AgentUsecase) *AgentHandler {
	return &AgentHandler{agentUsecase: agentUsecase}
}

// RegisterRoutes mounts the chat routes. The group is expected to use optional
// auth so anonymous callers still get an answer.
func (h *AgentHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/agent/chat", h.Chat)
	api.POST("/chat", h.Chat)
	api.POST("/agent/task", h.Task)
	api.POST("/agent/analyze", h.Analyze)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNoProvider):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type chatRequest struct {
	Message string           `json:"message" binding:"required"`
	History []ai.ChatMessage `json:"history"`
}

// Chat resolves and runs one user message
// POST /api/agent/chat
func (h *AgentHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	content, err := h.agentUsecase.ProcessMessage(c.Request.Context(), c.GetString("userID"), req.Message, req.History)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}

// Task answers a free-form task description
// POST /api/agent/task
func (h *AgentHandler) Task(c *gin.Context) {
	var req struct {
		Description string                 `json:"description" binding:"required"`
		Context     map[string]interface{} `json:"context"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.agentUsecase.ProcessTask(c.Request.Context(), req.Description, req.Context)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result, "timestamp": time.Now().UTC()})
}

// Analyze runs one kind of analysis over a text
// POST /api/agent/analyze
func (h *AgentHandler) Analyze(c *gin.Context) {
	var req struct {
		Text         string `json:"text" binding:"required"`
		AnalysisType string `json:"analysis_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.agentUsecase.AnalyzeText(c.Request.Context(), req.Text, req.AnalysisType)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"analysis": analysis, "timestamp": time.Now().UTC()})
}

// AIHandler exposes raw prompt generation to signed-in users
type AIHandler struct {
	agentUsecase usecase.AgentUsecase
}

func NewAIHandler(agentUsecase usecase.AgentUsecase) *AIHandler {
	return &AIHandler{agentUsecase: agentUsecase}
}

// RegisterRoutes mounts /ai on an authenticated group
func (h *AIHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/ai/generate", h.Generate)
}

// Generate completes a prompt
// POST /api/ai/generate
func (h *AIHandler) Generate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
		Type   string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = "text"
	}

	content, err := h.agentUsecase.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content, "type": req.Type})
}
