package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medcenter/appointment-api/util"
)

// RequestLogger logs each HTTP request as an endpoint event. It relies on
// DatabaseMiddleware having set DB in context and util.SetSecurityLoggerDB
// having been called during startup so events are persisted.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		actorID, actorType, _ := GetActor(c)

		details := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"raw_path":    c.Request.URL.Path,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"query":       c.Request.URL.RawQuery,
		}
		if actorID != 0 {
			details["actor_id"] = actorID
			details["actor_type"] = actorType
		}

		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventEndpointCall,
			UserID:    fmt.Sprintf("%d", actorID),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   fmt.Sprintf("%s %s -> %d", c.Request.Method, c.Request.URL.Path, status),
			Details:   details,
		})
	}
}
