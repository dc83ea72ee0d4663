package models

// Step is a position in the booking conversation. It is the only authoritative
// conversation position and is persisted on the user record.
type Step int

const (
	StepWelcome Step = iota
	StepConsent
	StepCategory
	StepService
	StepSlot
	StepLocation
	StepSummary
	StepCompleted
)

var stepNames = map[Step]string{
	StepWelcome:   "welcome",
	StepConsent:   "consent",
	StepCategory:  "category",
	StepService:   "service",
	StepSlot:      "slot",
	StepLocation:  "location",
	StepSummary:   "summary",
	StepCompleted: "completed",
}

// String returns the lower-case step name, or "unknown" for out-of-range values.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether s lies within [StepWelcome, StepCompleted].
func (s Step) Valid() bool {
	return s >= StepWelcome && s <= StepCompleted
}
