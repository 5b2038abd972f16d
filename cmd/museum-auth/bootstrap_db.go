package main

import (
	"context"
	"fmt"

	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	domainoutbox "github.com/I-Yanis-I/museum-app/internal/domain/outbox"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/I-Yanis-I/museum-app/internal/repository/memory"
	pg "github.com/I-Yanis-I/museum-app/internal/repository/postgres"
	"go.uber.org/zap"
)

type transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// stores bundles the repositories of one backend.
type stores struct {
	Users  user.Repo
	Outbox domainoutbox.Repository
	Tx     transactor
	Health func(ctx context.Context) error
	Close  func()
}

func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.DB.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			Users:  memory.NewUserRepo(),
			Outbox: memory.NewOutboxRepo(),
			Tx:     memory.NewTransactor(),
			Health: func(context.Context) error { return nil },
			Close:  func() {},
		}, nil
	case config.DriverPostgres:
		db, err := pg.New(ctx, cfg.DB.AsPostgresConfig())
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		return &stores{
			Users:  pg.NewUserRepo(db),
			Outbox: pg.NewOutboxRepo(db),
			Tx:     pg.NewTransactor(db, logger),
			Health: db.Ping,
			Close:  db.Close,
		}, nil
	default:
		return nil, config.ErrConfig("unknown db.driver " + cfg.DB.Driver)
	}
}
