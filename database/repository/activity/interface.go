package activityRepo

import (
	"context"

	"easyservice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ActivityLog records conversation progress for reporting. Writes are best
// effort; callers log failures and carry on.
type ActivityLog interface {
	StartSession(ctx context.Context, phone, sessionID string) error
	RecordStepReached(ctx context.Context, phone string, step models.Step, sessionID string) error
}

type mongoActivityLog struct {
	coll *mongo.Collection
}

// NewMongoActivityLog returns an ActivityLog over the useractivitylogs collection.
func NewMongoActivityLog(db *mongo.Database) ActivityLog {
	return &mongoActivityLog{coll: db.Collection("useractivitylogs")}
}
