package models

import (
	"strconv"
	"time"
)

// SlotOption is one candidate appointment window offered at the slot step.
// Offers are immutable once generated; Index is the selection key and never
// depends on how the offer is rendered.
type SlotOption struct {
	Index     int       `bson:"index" json:"index"`               // zero-based position in the offer set
	Date      time.Time `bson:"date" json:"date"`                 // calendar day of the visit
	DateLabel string    `bson:"dateDisplay" json:"dateDisplay"`   // e.g. "17-10-2026 (Sat)"
	Time      string    `bson:"time" json:"time"`                 // "10:00", "02:00" or "06:00"
	Period    string    `bson:"period" json:"period"`             // "AM" or "PM"
	Display   string    `bson:"display" json:"display"`           // "17-10-2026 (Sat) 10:00 AM"
	Short     string    `bson:"displayShort" json:"displayShort"` // button title, e.g. "17-10-2026 10 AM"
}

// ButtonID is the interactive reply id used when the offer is rendered as a button.
func (s SlotOption) ButtonID() string {
	return "slot_" + strconv.Itoa(s.Index)
}
