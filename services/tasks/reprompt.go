package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"easyservice/models"

	"github.com/hibiken/asynq"
)

const TypeSlotReprompt = "prompt:slot"

// minUniqueTTL keeps the uniqueness lock above Redis' one-second EX resolution.
const minUniqueTTL = time.Second

// NewSlotRepromptTask builds the task that re-sends the slot prompt to phone
// after delay.
func NewSlotRepromptTask(phone string, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(models.SlotRepromptPayload{Phone: phone})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSlotReprompt, b)
	uniqueTTL := delay
	if uniqueTTL < minUniqueTTL {
		uniqueTTL = minUniqueTTL
	}
	opts := []asynq.Option{
		asynq.ProcessIn(delay),
		asynq.MaxRetry(1),
		asynq.Timeout(30 * time.Second),
		// Repeated invalid input inside the window yields one re-prompt. The
		// lock expires, so an archived failure never blocks later re-prompts.
		asynq.Unique(uniqueTTL),
	}
	return task, opts, nil
}

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Scheduler queues slot re-prompts on Redis so they survive a restart of the
// process that accepted the message.
type Scheduler struct {
	client Enqueuer
}

func NewScheduler(client Enqueuer) *Scheduler {
	return &Scheduler{client: client}
}

func (s *Scheduler) ScheduleSlotReprompt(ctx context.Context, phone string, delay time.Duration) error {
	task, opts, err := NewSlotRepromptTask(phone, delay)
	if err != nil {
		return fmt.Errorf("failed to build slot re-prompt task: %w", err)
	}
	if _, err := s.client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil
		}
		return fmt.Errorf("failed to enqueue slot re-prompt: %w", err)
	}
	return nil
}
