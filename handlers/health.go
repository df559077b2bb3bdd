package handlers

import (
	"net/http"

	"flightbot/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the latest dependency snapshot, 503 when any check fails.
func HealthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := monitor.Status()
		if status.CheckedAt.IsZero() {
			status = monitor.CheckNow(c.Request.Context())
		}
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "message": "Hi, I'm the flight booking assistant"})
	}
}
