package models

import "time"

// SessionState is the ephemeral working set of one conversation. It is not
// restart-durable; every reader must tolerate finding it empty.
type SessionState struct {
	SessionID              string       `json:"sessionId,omitempty"` // correlates activity log entries
	Category               string       `json:"selectedBrand,omitempty"`
	AwaitingCustomCategory bool         `json:"waitingForCustomBrand,omitempty"`
	Service                string       `json:"selectedIssue,omitempty"`
	SlotOffers             []SlotOption `json:"availableSlots,omitempty"`
	SelectedSlots          []SlotOption `json:"selectedSlots,omitempty"`
	Location               *Location    `json:"location,omitempty"`
	StepHistory            []StepTrace  `json:"stepHistory,omitempty"`
}

// StepTrace records one step change inside a session.
type StepTrace struct {
	Step      Step      `json:"step"`
	StepName  string    `json:"stepName"`
	Timestamp time.Time `json:"timestamp"`
}

// Offer returns the offer with the given zero-based index.
func (s *SessionState) Offer(index int) (SlotOption, bool) {
	if index < 0 || index >= len(s.SlotOffers) {
		return SlotOption{}, false
	}
	return s.SlotOffers[index], true
}
