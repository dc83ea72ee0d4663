package models

import "time"

// Ticket lifecycle statuses.
const (
	TicketStatusNew        = "new"
	TicketStatusPending    = "pending"
	TicketStatusAssigned   = "assigned"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
	TicketStatusCancelled  = "cancelled"
)

// Booking is the durable service ticket created when a conversation is finalized.
type Booking struct {
	TicketNumber     string       `bson:"ticketNumber" json:"ticketNumber"` // globally unique, e.g. "SR0000001"
	CategoryName     string       `bson:"categoryName" json:"categoryName"`
	ServiceType      string       `bson:"serviceType" json:"serviceType"`
	SelectedSlot     *BookedSlot  `bson:"selectedSlot,omitempty" json:"selectedSlot,omitempty"`
	CustomerAddress  string       `bson:"customerAddress,omitempty" json:"customerAddress,omitempty"`
	CustomerLocation *Coordinates `bson:"customerLocation,omitempty" json:"customerLocation,omitempty"`
	UserReported     string       `bson:"userReported" json:"userReported"` // requester identity
	CreatedBy        string       `bson:"createdBy" json:"createdBy"`
	TicketStatus     string       `bson:"ticketStatus" json:"ticketStatus"`
	CreatedDate      time.Time    `bson:"createdDate" json:"createdDate"`
}

// BookedSlot is the slot snapshot stored on a booking.
type BookedSlot struct {
	Date    string `bson:"date" json:"date"`
	Time    string `bson:"time" json:"time"`
	Period  string `bson:"period" json:"period"`
	Display string `bson:"display" json:"display"`
}

// Coordinates of a shared location pin.
type Coordinates struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}
