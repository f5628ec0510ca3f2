package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contentpulse/backend/stats"
)

// Stats tracks visitors and analysis request outcomes.
func Stats(storage *stats.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		storage.TrackVisitor(c.ClientIP())

		c.Next()

		if c.Request.URL.Path == "/api/analyze" && c.Request.Method == http.MethodPost {
			storage.RecordAnalysis(time.Since(start), c.Writer.Status() >= 400)
		}
	}
}
