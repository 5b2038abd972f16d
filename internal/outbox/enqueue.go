package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/google/uuid"
)

// EnqueueAccountEvent stores ev under a fresh idempotency key. Called inside the
// transaction that performs the state change the event describes.
func EnqueueAccountEvent(ctx context.Context, repo outbox.Repository, kind outbox.Kind, ev outbox.AccountEvent) error {
	ev.Type = kind.String()
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", kind, err)
	}
	if err := repo.Enqueue(ctx, uuid.NewString(), kind, data); err != nil {
		return fmt.Errorf("enqueue %s event: %w", kind, err)
	}
	return nil
}
