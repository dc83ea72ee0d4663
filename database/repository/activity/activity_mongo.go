package activityRepo

import (
	"context"
	"fmt"
	"time"

	"easyservice/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StartSession inserts the activity document for a new conversation session.
func (l *mongoActivityLog) StartSession(ctx context.Context, phone, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	doc := models.ActivityLog{
		Phone:            phone,
		SessionID:        sessionID,
		TimestampStarted: time.Now(),
		StepTimestamps:   map[string]time.Time{},
	}
	if _, err := l.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to start activity session %s: %w", sessionID, err)
	}
	return nil
}

// RecordStepReached stamps the time a step was reached. Reaching the completed
// step also closes the session.
func (l *mongoActivityLog) RecordStepReached(ctx context.Context, phone string, step models.Step, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	set := bson.M{"steps." + step.String(): now}
	if step == models.StepCompleted {
		set["conversationCompleted"] = true
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"timestampStarted": now,
		},
	}
	filter := bson.M{"userPhoneNumber": phone, "sessionId": sessionID}
	if _, err := l.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to log step %s for %s: %w", step, phone, err)
	}
	return nil
}
