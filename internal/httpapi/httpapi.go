// Package httpapi exposes the two host webhooks that drive the core's
// control flow over HTTP: generation_started and message_received
// (spec §2, §6).
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neurobridge-labs/infobar-core/internal/engine"
	"github.com/neurobridge-labs/infobar-core/internal/host"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// Dependencies are the collaborators the registered routes close over.
type Dependencies struct {
	Log    *logger.Logger
	Engine *engine.Engine
	Host   *host.InMemory
}

// Register mounts the webhook routes on router.
func Register(router *gin.Engine, deps Dependencies) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/webhooks/generation_started", func(c *gin.Context) {
		var req generationStartedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		chatID := req.ChatID
		if chatID == "" && deps.Host != nil {
			id, err := deps.Host.GetChatID(c.Request.Context())
			if err == nil {
				chatID = id
			}
		}
		if chatID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId is required"})
			return
		}
		if err := deps.Engine.HandleGenerationStarted(c.Request.Context(), chatID); err != nil {
			deps.Log.Warn("generation_started handling failed", "chatId", chatID, "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "injected"})
	})

	router.POST("/webhooks/message_received", func(c *gin.Context) {
		var req messageReceivedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.ChatID == "" || req.Reply == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "chatId and reply are required"})
			return
		}
		if err := deps.Engine.HandleMessageReceived(c.Request.Context(), req.ChatID, req.Reply, req.MessageID); err != nil {
			deps.Log.Warn("message_received handling failed", "chatId", req.ChatID, "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "applied"})
	})
}

type generationStartedRequest struct {
	ChatID string `json:"chatId"`
}

type messageReceivedRequest struct {
	ChatID    string `json:"chatId"`
	Reply     string `json:"reply"`
	MessageID string `json:"messageId"`
}
