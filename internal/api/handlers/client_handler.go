package handlers

import (
	"net/http"
	"strconv"

	"panel-backend/internal/service"
	"panel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ClientHandler struct {
	clients *service.ClientService
	log     zerolog.Logger
}

func NewClientHandler(clients *service.ClientService, logger *logger.Logger) *ClientHandler {
	return &ClientHandler{
		clients: clients,
		log:     logger.GetLogger("client-handler"),
	}
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.clients.GetClients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) ListClientsWithConfigs(c *gin.Context) {
	opts := service.ListOptions{
		Search:         c.Query("search"),
		ProtocolFilter: c.Query("protocol"),
	}
	result, err := h.clients.ListClientsWithConfigs(c.Request.Context(), opts)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build client list")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	var input service.CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	client, err := h.clients.CreateClient(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	var input service.UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.clients.UpdateClient(c.Request.Context(), id, input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	if err := h.clients.DeleteClient(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *ClientHandler) SendConfigs(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	if err := h.clients.SendConfigsToTelegram(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int("client_id", id).Msg("Failed to send configs")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}
