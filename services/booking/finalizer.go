package booking

import (
	"context"
	"fmt"
	"time"

	activityRepo "easyservice/database/repository/activity"
	bookingRepo "easyservice/database/repository/booking"
	counterRepo "easyservice/database/repository/counter"
	"easyservice/models"

	"go.uber.org/zap"
)

// TicketSequence is the counter document every ticket number is drawn from.
const TicketSequence = "service_request"

// Finalizer turns a confirmed draft into a persisted service ticket.
type Finalizer struct {
	bookings bookingRepo.BookingRepository
	counters counterRepo.CounterRepository
	activity activityRepo.ActivityLog
	prefix   string
	logger   *zap.Logger
	now      func() time.Time
}

func NewFinalizer(
	bookings bookingRepo.BookingRepository,
	counters counterRepo.CounterRepository,
	activity activityRepo.ActivityLog,
	prefix string,
	logger *zap.Logger,
) *Finalizer {
	return &Finalizer{
		bookings: bookings,
		counters: counters,
		activity: activity,
		prefix:   prefix,
		logger:   logger,
		now:      time.Now,
	}
}

// FormatTicket renders a sequence value as prefix plus seven zero-padded digits.
func FormatTicket(prefix string, seq int64) string {
	return fmt.Sprintf("%s%07d", prefix, seq)
}

// Finalize issues a ticket for the user's draft and stores the booking.
// Profile summary and activity writes are best effort; a counter or booking
// failure is returned and no ticket is reported.
func (f *Finalizer) Finalize(ctx context.Context, user *models.User, session *models.SessionState) (string, error) {
	now := f.now()
	draft := user.Draft

	summary := models.ProfileSummary{
		Phone:           user.Identity,
		CompleteAddress: addressOf(draft.Location),
		Consent:         user.ConsentGiven,
		UpdatedAt:       now,
	}
	if user.DisplayName != models.DefaultDisplayName {
		summary.ProfileName = user.DisplayName
	}
	if err := f.bookings.UpsertProfileSummary(ctx, summary); err != nil {
		f.logger.Warn("Failed to upsert profile summary", zap.String("phone", user.Identity), zap.Error(err))
	}

	seq, err := f.counters.Next(ctx, TicketSequence)
	if err != nil {
		return "", fmt.Errorf("failed to issue ticket number: %w", err)
	}
	ticket := FormatTicket(f.prefix, seq)

	record := &models.Booking{
		TicketNumber:    ticket,
		CategoryName:    firstNonEmpty(draft.CategoryName, draft.Category),
		ServiceType:     firstNonEmpty(draft.ServiceName, draft.Service),
		CustomerAddress: addressOf(draft.Location),
		UserReported:    user.Identity,
		CreatedBy:       user.Identity,
		TicketStatus:    models.TicketStatusNew,
		CreatedDate:     now,
	}
	if slot := draft.Slot; slot != nil {
		record.SelectedSlot = &models.BookedSlot{
			Date:    slot.DateLabel,
			Time:    slot.Time,
			Period:  slot.Period,
			Display: slot.Display,
		}
	}
	if loc := draft.Location; loc != nil && loc.Shared {
		record.CustomerLocation = &models.Coordinates{Latitude: loc.Latitude, Longitude: loc.Longitude}
	}
	if err := f.bookings.CreateBooking(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store booking %s: %w", ticket, err)
	}

	if f.activity != nil && session != nil && session.SessionID != "" {
		if err := f.activity.RecordStepReached(ctx, user.Identity, models.StepCompleted, session.SessionID); err != nil {
			f.logger.Warn("Failed to mark conversation completed",
				zap.String("phone", user.Identity), zap.String("sessionId", session.SessionID), zap.Error(err))
		}
	}

	f.logger.Info("Booking finalized", zap.String("phone", user.Identity), zap.String("ticket", ticket))
	return ticket, nil
}

func addressOf(loc *models.Location) string {
	if loc == nil {
		return ""
	}
	return firstNonEmpty(loc.Address, loc.Label)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
