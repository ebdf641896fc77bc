package delivery

import (
	"errors"
	"net/http"

	authdomain "office-agent/internal/auth/domain"
	"office-agent/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// FCMHandler registers push devices for the authenticated user
type FCMHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewFCMHandler(authUsecase usecase.AuthUsecase) *FCMHandler {
	return &FCMHandler{authUsecase: authUsecase}
}

func (h *FCMHandler) RegisterRoutes(api *gin.RouterGroup) {
	fcm := api.Group("/fcm")
	{
		fcm.POST("/register", h.Register)
		fcm.DELETE("/:token", h.Unregister)
	}
}

type registerRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// POST /api/fcm/register
func (h *FCMHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.RegisterDevice(c.GetString("userID"), req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// DELETE /api/fcm/:token
func (h *FCMHandler) Unregister(c *gin.Context) {
	err := h.authUsecase.UnregisterDevice(c.GetString("userID"), c.Param("token"))
	if errors.Is(err, authdomain.ErrTokenNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
