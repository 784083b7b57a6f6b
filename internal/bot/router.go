package bot

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the webhook ingress. Telegram expects a fast 200, so
// updates are handled off the request goroutine.
func NewRouter(b *Bot, secret string) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/webhook/:secret", func(c *gin.Context) {
		given := c.Param("secret")
		if subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		var update Update

		if err := c.ShouldBindJSON(&update); err != nil {
			log.Printf("Malformed update: %v", err)
			c.Status(http.StatusOK)

			return
		}

		go b.HandleUpdate(context.Background(), update)

		c.Status(http.StatusOK)
	})

	return r
}
