package conversation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler delivers a delayed re-send of the slot prompt.
type Scheduler interface {
	ScheduleSlotReprompt(ctx context.Context, identity string, delay time.Duration) error
}

// RepromptFunc re-sends the slot prompt; Engine.RepromptSlot satisfies it.
type RepromptFunc func(ctx context.Context, identity string) error

// LocalScheduler runs re-prompts on in-process timers. Pending timers are
// lost on restart, which only costs the user one re-sent prompt.
type LocalScheduler struct {
	mu       sync.RWMutex
	reprompt RepromptFunc
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewLocalScheduler(logger *zap.Logger) *LocalScheduler {
	return &LocalScheduler{logger: logger}
}

// Bind sets the function timers call. It is set after the engine exists
// because the engine itself takes the scheduler.
func (s *LocalScheduler) Bind(fn RepromptFunc) {
	s.mu.Lock()
	s.reprompt = fn
	s.mu.Unlock()
}

func (s *LocalScheduler) ScheduleSlotReprompt(_ context.Context, identity string, delay time.Duration) error {
	s.wg.Add(1)
	time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.RLock()
		fn := s.reprompt
		s.mu.RUnlock()
		if fn == nil {
			s.logger.Warn("Slot re-prompt dropped; scheduler not bound", zap.String("phone", identity))
			return
		}
		if err := fn(context.Background(), identity); err != nil {
			s.logger.Error("Slot re-prompt failed", zap.String("phone", identity), zap.Error(err))
		}
	})
	return nil
}

// Wait blocks until every scheduled re-prompt has fired.
func (s *LocalScheduler) Wait() {
	s.wg.Wait()
}
