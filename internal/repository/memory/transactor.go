package memory

import (
	"context"
	"sync"
)

// Transactor serializes units of work. There is no rollback: memory writes are applied as they happen.
type Transactor struct {
	mu sync.Mutex
}

func NewTransactor() *Transactor { return &Transactor{} }

func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
