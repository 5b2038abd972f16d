package main

import (
	"context"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	domainoutbox "github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/obs/retry"
	"github.com/I-Yanis-I/museum-app/internal/outbox"
	kafkarepo "github.com/I-Yanis-I/museum-app/internal/repository/kafka"
	"go.uber.org/zap"
)

// logPublisher stands in for kafka when it is disabled so the outbox still drains.
type logPublisher struct{ log *zap.Logger }

func (p logPublisher) PublishAccountEvent(_ context.Context, ev domainoutbox.AccountEvent) error {
	p.log.Info("account event", zap.String("type", ev.Type), zap.String("user_id", ev.UserID))
	return nil
}

// initEvents returns the outbox relay and a closer for its publisher.
func initEvents(ctx context.Context, cfg *config.Config, st *stores, logger *zap.Logger) (*outbox.Runner, func(), error) {
	var pub outbox.AccountPublisher = logPublisher{log: logger.Named("events")}
	closePub := func() {}
	if cfg.Kafka.Enable {
		err := kafkarepo.EnsureTopic(ctx, cfg.Kafka.Brokers, kafkarepo.TopicSpec{
			Name:              cfg.Kafka.Topic,
			NumPartitions:     cfg.Kafka.Partitions,
			ReplicationFactor: cfg.Kafka.ReplicationFactor,
			MaxWait:           cfg.Kafka.EnsureTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		prod := kafkarepo.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic).WithLogger(logger)
		pub = kafkarepo.NewAccountEvents(prod)
		closePub = func() { _ = prod.Close() }
	}

	dispatch := outbox.MakeGlobalOutboxHandler(pub, retry.DefaultKafkaPolicy(logger))
	return outbox.NewOutboxRunner(logger.Named("outbox"), st.Outbox, dispatch, cfg.RunnerConfig()), closePub, nil
}
