package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the ticket and profile indexes.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bookingIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ticketNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_ticket"),
		},
		{
			Keys:    bson.D{{Key: "userReported", Value: 1}, {Key: "createdDate", Value: -1}},
			Options: options.Index().SetName("requester_created_idx"),
		},
	}
	if _, err := r.bookings.Indexes().CreateMany(ctx, bookingIndexes); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	profileIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "userPhoneNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_phone"),
	}
	if _, err := r.profiles.Indexes().CreateOne(ctx, profileIndex); err != nil {
		return fmt.Errorf("failed to create profile index: %w", err)
	}
	return nil
}
