package models

// Inbound event kinds.
const (
	EventText        = "text"
	EventInteractive = "interactive"
	EventLocation    = "location"
)

// Interactive reply kinds.
const (
	InteractiveList   = "list"
	InteractiveButton = "button"
)

// InboundEvent is one user message, already lifted out of the webhook envelope.
type InboundEvent struct {
	Identity        string            `json:"identity"`
	Type            string            `json:"type"`
	Text            *TextPayload      `json:"text,omitempty"`
	Interactive     *InteractiveReply `json:"interactive,omitempty"`
	Location        *LocationPayload  `json:"location,omitempty"`
	ProfileNameHint string            `json:"profileNameHint,omitempty"`
}

type TextPayload struct {
	Body string `json:"body"`
}

// InteractiveReply is a list-row or button tap. Both resolve identically.
type InteractiveReply struct {
	Kind        string `json:"kind"`
	SelectionID string `json:"selectionId"`
	Title       string `json:"title,omitempty"`
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
	Address   string  `json:"address,omitempty"`
}
