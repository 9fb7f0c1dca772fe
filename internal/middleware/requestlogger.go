package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/choosing-sucks/gateway/internal/models"
	"github.com/choosing-sucks/gateway/internal/repository"
)

// Buffered channel for async logging
var logChannel chan models.RequestLog

// InitRequestLogger starts the background worker that batches request logs
// into Postgres.
func InitRequestLogger(repo *repository.RequestLogRepository, bufferSize int) {
	logChannel = make(chan models.RequestLog, bufferSize)

	go func() {
		batch := make([]models.RequestLog, 0, 100)
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case entry := <-logChannel:
				batch = append(batch, entry)

				if len(batch) >= 100 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			case <-ticker.C:
				if len(batch) > 0 {
					insertBatch(repo, batch)
					batch = make([]models.RequestLog, 0, 100)
				}
			}
		}
	}()
}

func insertBatch(repo *repository.RequestLogRepository, logs []models.RequestLog) {
	if err := repo.CreateBatch(context.Background(), logs); err != nil {
		log.Printf("Failed to insert request logs: %v", err)
	}
}

// RequestLogger records every request for the admin analytics routes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		if logChannel == nil {
			return
		}

		duration := time.Since(start)

		entry := models.RequestLog{
			Timestamp:      start,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(duration.Milliseconds()),
			IPAddress:      ClientIdentity(c),
			UserAgent:      c.Request.UserAgent(),
		}

		select {
		case logChannel <- entry:
		default:
			// Channel full, drop the entry rather than block the response.
		}
	}
}
