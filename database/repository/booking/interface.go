package bookingRepo

import (
	"context"
	"fmt"

	"easyservice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository stores service tickets and the profile summary kept next to them.
type BookingRepository interface {
	// UpsertProfileSummary writes the profile keyed by phone; last write wins.
	UpsertProfileSummary(ctx context.Context, summary models.ProfileSummary) error
	// CreateBooking inserts a finalized ticket.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	// ListByRequester returns a requester's tickets, newest first.
	ListByRequester(ctx context.Context, phone string) ([]models.Booking, error)
}

type mongoBookingRepo struct {
	bookings *mongo.Collection
	profiles *mongo.Collection
}

// NewMongoBookingRepo returns a BookingRepository backed by the servicemasters
// and usermasters collections.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &mongoBookingRepo{
		bookings: db.Collection("servicemasters"),
		profiles: db.Collection("usermasters"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		fmt.Printf("failed to create booking indexes: %v\n", err)
	}
	return repo
}
