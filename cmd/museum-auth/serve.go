package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/I-Yanis-I/museum-app/internal/auth"
	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	"github.com/I-Yanis-I/museum-app/internal/httpx"
	"github.com/I-Yanis-I/museum-app/internal/repository/gotrue"
	"github.com/I-Yanis-I/museum-app/internal/services/museum-auth/account"
	authsvc "github.com/I-Yanis-I/museum-app/internal/services/museum-auth/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the outbox relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting museum-auth",
		zap.String("env", cfg.App.Env),
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("idp", cfg.IDP.Provider),
	)

	otelShutdown, err := initOTel(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	st, err := initStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens, err := auth.New(cfg.TokensConfig())
	if err != nil {
		return err
	}

	var provider idp.Provider
	if cfg.IDP.Enabled() {
		c, err := gotrue.New(cfg.GoTrueConfig())
		if err != nil {
			return err
		}
		provider = c
	}

	authUC, err := authsvc.NewUseCase(authsvc.Deps{
		Users:    st.Users,
		Tokens:   tokens,
		Tx:       st.Tx,
		Outbox:   st.Outbox,
		Provider: provider,
		Logger:   logger.Named("auth"),
	}, authsvc.Config{BcryptCost: cfg.Auth.BcryptCost})
	if err != nil {
		return err
	}
	accountUC := account.NewUseCase(account.Deps{
		Users:    st.Users,
		Tx:       st.Tx,
		Outbox:   st.Outbox,
		Provider: provider,
		Logger:   logger.Named("account"),
	})

	var limiter *httpx.RateLimiter
	if cfg.RateLimit.Enable {
		limiter = httpx.NewRateLimiter(cfg.RateLimitConfig(), logger)
		defer limiter.Stop()
	}

	handler, err := newRouter(cfg, logger, httpDeps{
		auth:    authUC,
		account: accountUC,
		tokens:  tokens,
		stores:  st,
		limiter: limiter,
	})
	if err != nil {
		return err
	}

	runner, closeEvents, err := initEvents(ctx, cfg, st, logger)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer closeEvents()

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	runner.Start(relayCtx)

	srv := newHTTPServer(cfg, handler)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(srv, logger) }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal")
	case runErr = <-httpErrCh:
		if errors.Is(runErr, http.ErrServerClosed) {
			runErr = nil
		}
		if runErr != nil {
			logger.Error("http serve", zap.Error(runErr))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopRelay()
	runner.Wait()

	logger.Info("bye")
	return runErr
}
