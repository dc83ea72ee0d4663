// File: models/records.go
package models

import "time"

// ProfileSummary is the last-write-wins profile kept next to the tickets.
type ProfileSummary struct {
	Phone           string    `bson:"userPhoneNumber" json:"userPhoneNumber"`
	ProfileName     string    `bson:"userProfileName,omitempty" json:"userProfileName,omitempty"`
	CompleteAddress string    `bson:"completeAddress,omitempty" json:"completeAddress,omitempty"`
	Consent         bool      `bson:"userConsent" json:"userConsent"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ActivityLog tracks how far one conversation session progressed.
type ActivityLog struct {
	Phone                 string               `bson:"userPhoneNumber" json:"userPhoneNumber"`
	SessionID             string               `bson:"sessionId" json:"sessionId"`
	TimestampStarted      time.Time            `bson:"timestampStarted" json:"timestampStarted"`
	StepTimestamps        map[string]time.Time `bson:"steps,omitempty" json:"steps,omitempty"` // keyed by step name
	ConversationCompleted bool                 `bson:"conversationCompleted" json:"conversationCompleted"`
}
