package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"easyservice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertProfileSummary sets the profile fields for a phone number, creating the
// document on first write. An empty address never overwrites a known one.
func (r *mongoBookingRepo) UpsertProfileSummary(ctx context.Context, summary models.ProfileSummary) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{
		"userConsent": summary.Consent,
		"updatedAt":   time.Now(),
	}
	if summary.ProfileName != "" {
		set["userProfileName"] = summary.ProfileName
	}
	if summary.CompleteAddress != "" {
		set["completeAddress"] = summary.CompleteAddress
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": time.Now()},
	}
	_, err := r.profiles.UpdateOne(ctx,
		bson.M{"userPhoneNumber": summary.Phone},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile summary for %s: %w", summary.Phone, err)
	}
	return nil
}

// CreateBooking inserts a new ticket document.
func (r *mongoBookingRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if booking.CreatedDate.IsZero() {
		booking.CreatedDate = time.Now()
	}
	if _, err := r.bookings.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking %s: %w", booking.TicketNumber, err)
	}
	return nil
}

// ListByRequester fetches all tickets reported by a phone number.
func (r *mongoBookingRepo) ListByRequester(ctx context.Context, phone string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdDate", Value: -1}})
	cursor, err := r.bookings.Find(ctx, bson.M{"userReported": phone}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", phone, err)
	}
	defer cursor.Close(ctx)

	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
