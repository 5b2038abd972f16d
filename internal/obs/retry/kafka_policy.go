package retry

import (
	"context"
	"errors"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	"go.uber.org/zap"
)

func DefaultKafkaPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "kafka_publish",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("outbox retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
		OnExhaust: func(err error) {
			if log != nil && !errors.Is(err, context.Canceled) {
				log.Error("outbox retries exhausted", zap.Error(err))
			}
		},
	}
}

// DefaultIdentityPolicy retries identity provider calls that failed for transport reasons only.
func DefaultIdentityPolicy(log *zap.Logger) Policy {
	return Policy{
		Name:     "identity_provider",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 100 * time.Millisecond, Max: 2 * time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			return errors.Is(err, idp.ErrUnavailable)
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("identity provider retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
