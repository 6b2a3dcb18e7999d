package api

import (
	"net/http"
	"time"

	"panel-backend/internal/api/handlers"
	"panel-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func NewRouter(
	clientHandler *handlers.ClientHandler,
	configHandler *handlers.ConfigHandler,
	serverHandler *handlers.ServerHandler,
	logHandler *handlers.LogHandler,
	logger *logger.Logger,
) http.Handler {
	log := logger.GetLogger("router")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestID(), accessLog(log), gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	{
		// 客户端管理路由
		api.GET("/clients", clientHandler.ListClients)
		api.GET("/clients/with-configs", clientHandler.ListClientsWithConfigs)
		api.POST("/clients", clientHandler.CreateClient)
		api.PUT("/clients/:id", clientHandler.UpdateClient)
		api.DELETE("/clients/:id", clientHandler.DeleteClient)
		api.POST("/clients/:id/send-configs", clientHandler.SendConfigs)

		// 配置管理路由
		api.POST("/configs", configHandler.CreateConfig)
		api.PUT("/configs/:id/client", configHandler.AssignClient)
		api.DELETE("/configs/:id", configHandler.DeleteConfig)
		api.GET("/configs/:id/key", configHandler.GetVPNKey)

		// 服务器管理路由
		api.GET("/server", serverHandler.GetServerInfo)
		api.GET("/server/backup", serverHandler.ExportBackup)
		api.POST("/server/backup", serverHandler.ImportBackup)
		api.POST("/server/reboot", serverHandler.Reboot)
		api.GET("/server/status", serverHandler.GetSystemStatus)

		// 审计日志路由
		api.GET("/logs", logHandler.ListLogs)
	}

	log.Debug().Msg("Router initialized")
	return engine
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}
