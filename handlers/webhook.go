package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"easyservice/models"
	"easyservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventProcessor handles one inbound conversation event.
type EventProcessor interface {
	Process(ctx context.Context, event models.InboundEvent) error
}

// WebhookHandler serves the WhatsApp Cloud API webhook. Events are
// acknowledged right away and processed in the background.
type WebhookHandler struct {
	Processor   EventProcessor
	VerifyToken string
	Timeout     time.Duration

	wg sync.WaitGroup
}

func NewWebhookHandler(p EventProcessor, verifyToken string) *WebhookHandler {
	return &WebhookHandler{
		Processor:   p,
		VerifyToken: verifyToken,
		Timeout:     30 * time.Second,
	}
}

// VerifyWebhookHandler handles GET /webhook subscription checks.
func (h *WebhookHandler) VerifyWebhookHandler(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing verification parameters", "hub.mode and hub.verify_token are required")
		return
	}
	if mode != "subscribe" || h.VerifyToken == "" || token != h.VerifyToken {
		utils.GetLogger().Warn("Webhook verification rejected", zap.String("mode", mode))
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.String(http.StatusOK, challenge)
}

// ReceiveWebhookHandler handles POST /webhook notifications.
func (h *WebhookHandler) ReceiveWebhookHandler(c *gin.Context) {
	logger := utils.GetLogger()

	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.Warn("Malformed webhook payload", zap.Error(err))
		// Anything but 200 makes Meta redeliver the same body.
		c.Status(http.StatusOK)
		return
	}

	events := eventsOf(payload)
	c.Status(http.StatusOK)

	for _, ev := range events {
		h.dispatch(ev)
	}
}

func (h *WebhookHandler) dispatch(ev models.InboundEvent) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), h.Timeout)
		defer cancel()
		if err := h.Processor.Process(ctx, ev); err != nil {
			utils.GetLogger().Error("Failed to process inbound event",
				zap.String("identity", ev.Identity), zap.String("type", ev.Type), zap.Error(err))
		}
	}()
}

// Wait blocks until every dispatched event has been processed.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}

func eventsOf(payload models.WebhookPayload) []models.InboundEvent {
	var events []models.InboundEvent
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				events = append(events, msg.ToEvent(change.Value.ProfileNameFor(msg.From)))
			}
		}
	}
	return events
}
