package routes

import (
	"easyservice/handlers"
	"easyservice/middleware"
	"easyservice/utils"

	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the WhatsApp Cloud API webhook.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle, appSecret string) {
	webhook := r.Group("/webhook")
	{
		webhook.GET("", hb.VerifyWebhookHandler)
		webhook.POST("", middleware.WebhookSignatureMiddleware(appSecret), hb.ReceiveWebhookHandler)
	}
}

// RegisterTicketRoutes registers read-only ticket lookups. They expose
// addresses, so every request needs a tickets:read bearer token.
func RegisterTicketRoutes(r *gin.Engine, hb *handlers.HandlerBundle, jwtSecret string) {
	api := r.Group("/api/tickets")
	{
		api.Use(middleware.JWTAuthMiddleware(jwtSecret, utils.TicketReadScope))
		api.GET("/:phone", hb.ListTicketsHandler)
	}
}

// RegisterHealthRoute registers the dependency health probe.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes wires up all routes.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, appSecret, jwtSecret string) {
	RegisterWebhookRoutes(r, hb, appSecret)
	RegisterTicketRoutes(r, hb, jwtSecret)
	RegisterHealthRoute(r, hb)
}
