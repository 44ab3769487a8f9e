package bot

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/local/chatrelay/internal/telegram"
)

// NewRouter builds the webhook HTTP surface. Requests carrying the wrong
// shared secret are rejected with 405 before any bot logic runs. Once the
// secret matches, the endpoint always answers 200: user-visible errors go
// out through sendMessage, never as webhook statuses that would make the
// platform redeliver the update.
func NewRouter(b *Bot, secret string, requestTimeout time.Duration, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/webhook", func(c *gin.Context) {
		if c.Query("secret") != secret {
			c.AbortWithStatus(http.StatusMethodNotAllowed)
			return
		}

		var upd telegram.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			logger.Warn("undecodable webhook body", "error", err)
			c.Status(http.StatusOK)
			return
		}

		requestID := uuid.New().String()
		logger.Info("webhook update received", "request_id", requestID, "update_id", upd.UpdateID)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()
		b.HandleUpdate(ctx, upd)

		logger.Info("webhook update handled", "request_id", requestID, "update_id", upd.UpdateID)
		c.Status(http.StatusOK)
	})

	return router
}
