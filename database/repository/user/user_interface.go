package userRepo

import (
	"context"

	"easyservice/models"
)

// UserRepository defines methods for conversation record access.
type UserRepository interface {
	// FindByIdentity returns the record for a subscriber, or nil when none exists.
	FindByIdentity(ctx context.Context, identity string) (*models.User, error)
	// Create inserts a new record.
	Create(ctx context.Context, user *models.User) error
	// Save replaces the stored record with user.
	Save(ctx context.Context, user *models.User) error
}
