package models

// SlotRepromptPayload is the body of the delayed slot re-prompt task.
type SlotRepromptPayload struct {
	Phone string `json:"phone"`
}
