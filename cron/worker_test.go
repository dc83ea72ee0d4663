package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"easyservice/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReprompter struct {
	phones []string
	err    error
}

func (f *fakeReprompter) RepromptSlot(_ context.Context, phone string) error {
	f.phones = append(f.phones, phone)
	return f.err
}

func TestHandleSlotReprompt(t *testing.T) {
	r := &fakeReprompter{}
	task, _, err := tasks.NewSlotRepromptTask("9198", time.Second)
	require.NoError(t, err)

	require.NoError(t, handleSlotReprompt(r, zap.NewNop())(context.Background(), task))
	require.Equal(t, []string{"9198"}, r.phones)
}

func TestHandleSlotReprompt_BadPayloadSkipsRetry(t *testing.T) {
	r := &fakeReprompter{}
	err := handleSlotReprompt(r, zap.NewNop())(context.Background(), asynq.NewTask(tasks.TypeSlotReprompt, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, r.phones)
}

func TestHandleSlotReprompt_PropagatesFailure(t *testing.T) {
	r := &fakeReprompter{err: errors.New("mongo down")}
	task, _, err := tasks.NewSlotRepromptTask("9198", time.Second)
	require.NoError(t, err)

	require.Error(t, handleSlotReprompt(r, zap.NewNop())(context.Background(), task))
}
