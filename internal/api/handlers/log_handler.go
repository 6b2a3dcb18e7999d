package handlers

import (
	"net/http"
	"strconv"

	"panel-backend/internal/logs"
	"panel-backend/internal/store/types"
	"panel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type LogHandler struct {
	logs *logs.Service
	log  zerolog.Logger
}

func NewLogHandler(logService *logs.Service, logger *logger.Logger) *LogHandler {
	return &LogHandler{
		logs: logService,
		log:  logger.GetLogger("log-handler"),
	}
}

func (h *LogHandler) ListLogs(c *gin.Context) {
	filter := types.LogFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Level:    c.Query("level"),
		Page:     intQuery(c, "page", 1),
		Limit:    intQuery(c, "limit", 50),
	}

	result, err := h.logs.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
