package handlers

import (
	"net/http"

	"easyservice/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports the latest dependency snapshot. WhatsApp is reported
// as configured, not reachable.
func HealthHandler(whatsappConfigured bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := utils.GetHealthStatus()
		healthy := status.Mongo
		for _, ok := range status.Redis {
			healthy = healthy && ok
		}
		code, label := http.StatusOK, "ok"
		if !healthy {
			code, label = http.StatusServiceUnavailable, "degraded"
		}
		c.JSON(code, gin.H{
			"status":   label,
			"mongo":    status.Mongo,
			"redis":    status.Redis,
			"whatsapp": whatsappConfigured,
			"checked":  status.CheckedAt,
		})
	}
}
