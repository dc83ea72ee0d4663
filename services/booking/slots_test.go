package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlots_ThreeOffers(t *testing.T) {
	now := time.Date(2026, time.October, 16, 15, 42, 0, 0, time.UTC) // Friday

	offers := GenerateSlots(3, now)
	require.Len(t, offers, 3)

	wantTimes := []string{"10:00 AM", "02:00 PM", "06:00 PM"}
	wantDays := []string{"Sat", "Sun", "Mon"}
	for i, offer := range offers {
		assert.Equal(t, i, offer.Index)
		assert.Equal(t, now.AddDate(0, 0, i+1).Format("2006-01-02"), offer.Date.Format("2006-01-02"))
		assert.Equal(t, wantTimes[i], offer.Time+" "+offer.Period)
		assert.Contains(t, offer.DateLabel, wantDays[i])
	}

	assert.Equal(t, "17-10-2026 (Sat) 10:00 AM", offers[0].Display)
	assert.Equal(t, "19-10-2026 6 PM", offers[2].Short)
	assert.Equal(t, "slot_1", offers[1].ButtonID())
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	now := time.Date(2026, time.December, 30, 23, 59, 0, 0, time.UTC)

	require.Equal(t, GenerateSlots(3, now), GenerateSlots(3, now))
	assert.Equal(t, "01-01-2027 (Fri) 02:00 PM", GenerateSlots(3, now)[1].Display)
}

func TestGenerateSlots_BeyondThreeUsesEvening(t *testing.T) {
	offers := GenerateSlots(5, time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	require.Len(t, offers, 5)
	for _, offer := range offers[2:] {
		assert.Equal(t, "06:00", offer.Time)
		assert.Equal(t, "PM", offer.Period)
	}
}

func TestGenerateSlots_NonPositiveCount(t *testing.T) {
	assert.Empty(t, GenerateSlots(0, time.Now()))
	assert.Empty(t, GenerateSlots(-2, time.Now()))
}
