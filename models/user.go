// models/user.go
package models

import "time"

// DefaultDisplayName is stored until a WhatsApp profile name is observed.
const DefaultDisplayName = "Customer"

// Request statuses kept on the user's draft and history entries.
const (
	RequestStatusPending   = "pending"
	RequestStatusConfirmed = "confirmed"
	RequestStatusCancelled = "cancelled"
	RequestStatusCompleted = "completed"
)

// User is the durable per-subscriber conversation record.
type User struct {
	Identity        string           `bson:"phoneNumber" json:"phoneNumber"`                     // WhatsApp id of the subscriber (unique)
	DisplayName     string           `bson:"displayName" json:"displayName"`                     // best known human name
	Step            Step             `bson:"conversationStep" json:"conversationStep"`           // authoritative conversation position
	State           string           `bson:"conversationState" json:"conversationState"`         // step name, kept for dashboards
	ConsentGiven    bool             `bson:"consentGiven" json:"consentGiven"`                   // explicit affirmative consent
	ConsentAt       *time.Time       `bson:"consentTimestamp,omitempty" json:"consentTimestamp"` // set with ConsentGiven
	Draft           ServiceRequest   `bson:"currentRequest" json:"currentRequest"`               // in-progress booking
	History         []ServiceRequest `bson:"serviceHistory" json:"serviceHistory"`               // finalized bookings, append only
	MessageCount    int              `bson:"messageCount" json:"messageCount"`
	LastInteraction time.Time        `bson:"lastInteraction" json:"lastInteraction"`
	LastMessage     string           `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"` // last raw token, diagnostic only
	CreatedAt       time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// NewUser returns a fresh record positioned at StepWelcome.
func NewUser(identity string, now time.Time) *User {
	return &User{
		Identity:        identity,
		DisplayName:     DefaultDisplayName,
		Step:            StepWelcome,
		State:           StepWelcome.String(),
		History:         []ServiceRequest{},
		LastInteraction: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// GreetingName is the name used in prompts: the display name, or "there" while
// only the placeholder is known.
func (u *User) GreetingName() string {
	if u.DisplayName == "" || u.DisplayName == DefaultDisplayName {
		return "there"
	}
	return u.DisplayName
}

// ServiceRequest is a booking draft, or a finalized snapshot once appended to
// the user's history.
type ServiceRequest struct {
	Category     string      `bson:"brand,omitempty" json:"brand,omitempty"`
	CategoryName string      `bson:"brandName,omitempty" json:"brandName,omitempty"`
	Service      string      `bson:"issue,omitempty" json:"issue,omitempty"`
	ServiceName  string      `bson:"issueName,omitempty" json:"issueName,omitempty"`
	Slot         *SlotOption `bson:"selectedSlot,omitempty" json:"selectedSlot,omitempty"`
	Location     *Location   `bson:"location,omitempty" json:"location,omitempty"`
	TicketNumber string      `bson:"ticketNumber,omitempty" json:"ticketNumber,omitempty"`
	Status       string      `bson:"status,omitempty" json:"status,omitempty"`
	CreatedAt    *time.Time  `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	CompletedAt  *time.Time  `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// IsEmpty reports whether nothing has been collected yet.
func (r ServiceRequest) IsEmpty() bool {
	return r.Category == "" && r.Service == "" && r.Slot == nil && r.Location == nil
}

// Location is either a shared WhatsApp pin or a typed address.
type Location struct {
	Address   string  `bson:"address" json:"address"`
	Label     string  `bson:"label,omitempty" json:"label,omitempty"`
	Latitude  float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Shared    bool    `bson:"shared" json:"shared"` // true when coordinates came from a location message
}
