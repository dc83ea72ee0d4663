package handlers

import (
	"net/http"

	bookingRepo "easyservice/database/repository/booking"
	"easyservice/models"
	"easyservice/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TicketHandler struct {
	Bookings bookingRepo.BookingRepository
}

func NewTicketHandler(bookings bookingRepo.BookingRepository) *TicketHandler {
	return &TicketHandler{Bookings: bookings}
}

// ListTicketsHandler handles GET /api/tickets/:phone.
func (h *TicketHandler) ListTicketsHandler(c *gin.Context) {
	phone := c.Param("phone")
	if phone == "" {
		utils.JSONError(c, http.StatusBadRequest, "Missing phone", "")
		return
	}
	tickets, err := h.Bookings.ListByRequester(c.Request.Context(), phone)
	if err != nil {
		utils.GetLogger().Error("Failed to list tickets", zap.String("phone", phone), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to list tickets", err.Error())
		return
	}
	if tickets == nil {
		tickets = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets, "count": len(tickets)})
}
