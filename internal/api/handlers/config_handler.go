package handlers

import (
	"net/http"

	"panel-backend/internal/service"
	"panel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ConfigHandler struct {
	configs *service.ConfigService
	log     zerolog.Logger
}

func NewConfigHandler(configs *service.ConfigService, logger *logger.Logger) *ConfigHandler {
	return &ConfigHandler{
		configs: configs,
		log:     logger.GetLogger("config-handler"),
	}
}

func (h *ConfigHandler) CreateConfig(c *gin.Context) {
	var input service.CreateConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	config, err := h.configs.CreateConfig(c.Request.Context(), input)
	if err != nil {
		h.log.Error().Err(err).Str("username", input.Username).Msg("Failed to create config")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, config)
}

type assignClientRequest struct {
	ClientID int `json:"clientId"`
}

func (h *ConfigHandler) AssignClient(c *gin.Context) {
	var req assignClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.configs.UpdateClientConfig(c.Request.Context(), c.Param("id"), req.ClientID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ConfigHandler) DeleteConfig(c *gin.Context) {
	if err := h.configs.DeleteConfig(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ConfigHandler) GetVPNKey(c *gin.Context) {
	key, err := h.configs.GetVPNKey(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key})
}
