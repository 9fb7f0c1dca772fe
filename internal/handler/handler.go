package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// upstreamError logs the real failure server-side and returns a generic
// envelope. Upstream error bodies never reach the client from here.
func upstreamError(c *gin.Context, message string, err error) {
	log.Printf("[%s] %s: %v", c.GetString("request_id"), message, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

// notConfigured is the missing-credential path. The key name is logged, not
// echoed to the client.
func notConfigured(c *gin.Context, service string) {
	log.Printf("[%s] %s is not configured", c.GetString("request_id"), service)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Service temporarily unavailable"})
}
