package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/outbox"
)

var _ outbox.Repository = (*OutboxRepo)(nil)

type OutboxRepo struct {
	mu   sync.Mutex
	msgs map[string]*outbox.Message
	now  func() time.Time
}

func NewOutboxRepo() *OutboxRepo {
	return &OutboxRepo{
		msgs: make(map[string]*outbox.Message),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *OutboxRepo) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.msgs[key]; ok {
		return nil
	}
	now := r.now()
	r.msgs[key] = &outbox.Message{
		IdempotencyKey: key,
		Kind:           kind,
		Data:           append([]byte(nil), data...),
		Status:         outbox.StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return nil
}

func (r *OutboxRepo) PickBatch(_ context.Context, batch int, inProgressTTL time.Duration) ([]outbox.Message, error) {
	if batch <= 0 {
		return nil, errors.New("batch must be > 0")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	var cand []*outbox.Message
	for _, m := range r.msgs {
		stale := m.Status == outbox.StatusInProgress && m.UpdatedAt.Before(now.Add(-inProgressTTL))
		if m.Status == outbox.StatusCreated || stale {
			cand = append(cand, m)
		}
	}
	sort.Slice(cand, func(i, j int) bool { return cand[i].CreatedAt.Before(cand[j].CreatedAt) })
	if len(cand) > batch {
		cand = cand[:batch]
	}

	out := make([]outbox.Message, 0, len(cand))
	for _, m := range cand {
		m.Status = outbox.StatusInProgress
		m.UpdatedAt = now
		out = append(out, *m)
	}
	return out, nil
}

func (r *OutboxRepo) MarkSuccess(_ context.Context, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, k := range keys {
		if m, ok := r.msgs[k]; ok {
			m.Status = outbox.StatusSuccess
			m.UpdatedAt = now
		}
	}
	return nil
}

// Messages returns a snapshot of every stored message ordered by creation time.
func (r *OutboxRepo) Messages() []outbox.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]outbox.Message, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
