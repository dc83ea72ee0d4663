package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"easyservice/config"
	"easyservice/models"
	"easyservice/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Reprompter re-sends the slot prompt to one subscriber.
type Reprompter interface {
	RepromptSlot(ctx context.Context, phone string) error
}

// QueueRedisOpt is the Redis connection shared by the task client and worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitRepromptWorker starts the task worker in the background and returns the
// server so the caller can shut it down.
func InitRepromptWorker(r Reprompter, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSlotReprompt, handleSlotReprompt(r, logger))

	go func() {
		logger.Info("Starting re-prompt worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("Failed to start re-prompt worker",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Fatal("Max retry attempts reached for re-prompt worker")
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleSlotReprompt(r Reprompter, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.SlotRepromptPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil || p.Phone == "" {
			logger.Warn("Invalid slot re-prompt payload", zap.ByteString("payload", task.Payload()))
			return fmt.Errorf("invalid slot re-prompt payload: %w", asynq.SkipRetry)
		}
		if err := r.RepromptSlot(ctx, p.Phone); err != nil {
			logger.Error("Slot re-prompt failed", zap.String("phone", p.Phone), zap.Error(err))
			return err
		}
		return nil
	}
}
