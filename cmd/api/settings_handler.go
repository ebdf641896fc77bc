package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"office-agent/pkg/ai"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RuntimeConfig holds the AI settings that can change without a restart
type RuntimeConfig struct {
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

var (
	runtimeConfig     RuntimeConfig
	runtimeConfigLock sync.RWMutex
)

// InitRuntimeConfig seeds the runtime settings from the static config
func InitRuntimeConfig(ollamaBaseURL, ollamaModel string) {
	runtimeConfigLock.Lock()
	defer runtimeConfigLock.Unlock()
	runtimeConfig = RuntimeConfig{
		OllamaBaseURL: ollamaBaseURL,
		OllamaModel:   ollamaModel,
	}
}

// GetRuntimeOllamaBaseURL is read by the Ollama provider on every call
func GetRuntimeOllamaBaseURL() string {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.OllamaBaseURL
}

func GetRuntimeOllamaModel() string {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig.OllamaModel
}

func currentRuntimeConfig() RuntimeConfig {
	runtimeConfigLock.RLock()
	defer runtimeConfigLock.RUnlock()
	return runtimeConfig
}

// UpdateAISettingsRequest is the body of PUT /api/settings/ai
type UpdateAISettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required,url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GetAISettings returns the current runtime AI settings
// GET /api/settings/ai
func GetAISettings(c *gin.Context) {
	c.JSON(http.StatusOK, currentRuntimeConfig())
}

// UpdateAISettings changes the Ollama endpoint at runtime
// PUT /api/settings/ai
func UpdateAISettings(c *gin.Context) {
	var req UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runtimeConfigLock.Lock()
	runtimeConfig.OllamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		runtimeConfig.OllamaModel = req.OllamaModel
	}
	updated := runtimeConfig
	runtimeConfigLock.Unlock()

	log.Info().Str("ollama_base_url", updated.OllamaBaseURL).Str("ollama_model", updated.OllamaModel).Msg("[Settings] AI settings updated")

	c.JSON(http.StatusOK, gin.H{
		"message":         "AI settings updated successfully",
		"ollama_base_url": updated.OllamaBaseURL,
		"ollama_model":    updated.OllamaModel,
	})
}

// CheckAIConnection checks that an Ollama server answers. With no body the
// current runtime URL is tested.
// POST /api/settings/ai/test
func CheckAIConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = GetRuntimeOllamaBaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := ai.NewOllamaService(req.OllamaBaseURL, GetRuntimeOllamaModel()).Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
