package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/I-Yanis-I/museum-app/internal/domain/outbox"
)

const AccountEventsTopic = "museum.account-events"

// AccountEvents publishes account lifecycle events keyed by user id, so one
// user's events stay ordered within a partition.
type AccountEvents struct {
	p *Producer
}

func NewAccountEvents(p *Producer) *AccountEvents {
	return &AccountEvents{p: p}
}

func (a *AccountEvents) PublishAccountEvent(ctx context.Context, ev outbox.AccountEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	return a.p.Publish(ctx, []byte(ev.UserID), value)
}
