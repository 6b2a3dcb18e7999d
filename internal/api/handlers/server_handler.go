package handlers

import (
	"io"
	"net/http"

	"panel-backend/internal/service"
	"panel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// backups above this size are rejected before parsing
const maxBackupSize = 10 << 20

type ServerHandler struct {
	server *service.ServerService
	log    zerolog.Logger
}

func NewServerHandler(server *service.ServerService, logger *logger.Logger) *ServerHandler {
	return &ServerHandler{
		server: server,
		log:    logger.GetLogger("server-handler"),
	}
}

func (h *ServerHandler) GetServerInfo(c *gin.Context) {
	info, err := h.server.GetServerInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *ServerHandler) ExportBackup(c *gin.Context) {
	backup, err := h.server.GetBackup(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=server-backup.json")
	c.JSON(http.StatusOK, backup)
}

func (h *ServerHandler) ImportBackup(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBackupSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if err := h.server.ImportBackup(c.Request.Context(), raw); err != nil {
		h.log.Error().Err(err).Msg("Backup import failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "imported"})
}

func (h *ServerHandler) Reboot(c *gin.Context) {
	if err := h.server.Reboot(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rebooting"})
}

func (h *ServerHandler) GetSystemStatus(c *gin.Context) {
	status, err := h.server.GetSystemStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
