package userRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easyservice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a new instance of UserRepository using MongoDB.
func NewMongoUserRepo(db *mongo.Database) UserRepository {
	repo := &MongoUserRepo{coll: db.Collection("users")}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create user indexes: %v\n", err)
	}
	return repo
}

// newContext bounds a single store call.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

// FindByIdentity retrieves a record by phone number.
func (r *MongoUserRepo) FindByIdentity(ctx context.Context, identity string) (*models.User, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"phoneNumber": identity}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", identity, err)
	}
	return &user, nil
}

// Create inserts a new user document.
func (r *MongoUserRepo) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Identity, err)
	}
	return nil
}

// Save replaces the user document, keyed by phone number.
func (r *MongoUserRepo) Save(ctx context.Context, user *models.User) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	user.UpdatedAt = time.Now()
	result, err := r.coll.ReplaceOne(ctx, bson.M{"phoneNumber": user.Identity}, user)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", user.Identity, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %s not found", user.Identity)
	}
	return nil
}
