package booking

import (
	"fmt"
	"time"

	"easyservice/models"
)

type slotTime struct {
	clock  string
	period string
	short  string
}

// Offer i (1-based) takes entry i-1; offers past the table reuse the last entry.
var slotTimes = []slotTime{
	{clock: "10:00", period: "AM", short: "10 AM"},
	{clock: "02:00", period: "PM", short: "2 PM"},
	{clock: "06:00", period: "PM", short: "6 PM"},
}

// GenerateSlots returns count appointment windows starting the day after now.
// It is pure: the same now always yields the same offers.
func GenerateSlots(count int, now time.Time) []models.SlotOption {
	if count <= 0 {
		return []models.SlotOption{}
	}

	base := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offers := make([]models.SlotOption, 0, count)
	for i := 1; i <= count; i++ {
		day := base.AddDate(0, 0, i)
		st := slotTimes[min(i, len(slotTimes))-1]
		label := day.Format("02-01-2006 (Mon)")

		offers = append(offers, models.SlotOption{
			Index:     i - 1,
			Date:      day,
			DateLabel: label,
			Time:      st.clock,
			Period:    st.period,
			Display:   fmt.Sprintf("%s %s %s", label, st.clock, st.period),
			Short:     fmt.Sprintf("%s %s", day.Format("02-01-2006"), st.short),
		})
	}
	return offers
}
