package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/obs/retry"
	"github.com/I-Yanis-I/museum-app/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []outbox.AccountEvent
	fail   func(outbox.AccountEvent) error
}

func (f *fakePublisher) PublishAccountEvent(_ context.Context, ev outbox.AccountEvent) error {
	if f.fail != nil {
		if err := f.fail(ev); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func noRetry() retry.Policy { return retry.Policy{Attempts: 1} }

func TestRunner_TickDeliversAndMarks(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepo()
	pub := &fakePublisher{}

	require.NoError(t, EnqueueAccountEvent(ctx, repo, outbox.KindAccountRegistered, outbox.AccountEvent{UserID: "u1", Email: "a@example.com"}))
	require.NoError(t, EnqueueAccountEvent(ctx, repo, outbox.KindAccountDeleted, outbox.AccountEvent{UserID: "u2"}))

	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, noRetry()), RunnerConfig{BatchSize: 10})
	assert.Equal(t, 2, r.tick(ctx))

	require.Len(t, pub.events, 2)
	types := []string{pub.events[0].Type, pub.events[1].Type}
	assert.ElementsMatch(t, []string{"account.registered", "account.deleted"}, types)
	for _, m := range repo.Messages() {
		assert.Equal(t, outbox.StatusSuccess, m.Status)
	}
	assert.Equal(t, 0, r.tick(ctx))
}

func TestRunner_FailedMessageStaysInProgress(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutboxRepo()
	pub := &fakePublisher{fail: func(ev outbox.AccountEvent) error {
		if ev.UserID == "bad" {
			return errors.New("broker down")
		}
		return nil
	}}

	require.NoError(t, EnqueueAccountEvent(ctx, repo, outbox.KindAccountRegistered, outbox.AccountEvent{UserID: "bad"}))
	require.NoError(t, EnqueueAccountEvent(ctx, repo, outbox.KindAccountRegistered, outbox.AccountEvent{UserID: "good"}))

	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, noRetry()), RunnerConfig{InProgressTTL: time.Hour})
	assert.Equal(t, 1, r.tick(ctx))

	statuses := map[string]outbox.Status{}
	for _, m := range repo.Messages() {
		var ev outbox.AccountEvent
		require.NoError(t, json.Unmarshal(m.Data, &ev))
		statuses[ev.UserID] = m.Status
	}
	assert.Equal(t, outbox.StatusInProgress, statuses["bad"])
	assert.Equal(t, outbox.StatusSuccess, statuses["good"])
}

func TestGlobalHandler_UnknownKind(t *testing.T) {
	_, err := MakeGlobalOutboxHandler(&fakePublisher{}, noRetry())(outbox.Kind(99))
	assert.Error(t, err)
}

func TestRunner_StartStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := memory.NewOutboxRepo()
	pub := &fakePublisher{}
	require.NoError(t, EnqueueAccountEvent(ctx, repo, outbox.KindReconcileRequired, outbox.AccountEvent{UserID: "u1", Reason: "store delete failed"}))

	r := NewOutboxRunner(zap.NewNop(), repo, MakeGlobalOutboxHandler(pub, noRetry()), RunnerConfig{Workers: 2, WaitTime: 10 * time.Millisecond})
	r.Start(ctx)

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	r.Wait()
	assert.Equal(t, "account.reconcile_required", pub.events[0].Type)
}
