package models

// Button is one reply button of an interactive message. WhatsApp renders at
// most three per message.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListSection groups rows of an interactive list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
