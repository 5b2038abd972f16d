package main

import (
	config "github.com/I-Yanis-I/museum-app/internal/config/museum-auth"
	"github.com/I-Yanis-I/museum-app/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := cfg.LogConfig()
	lc.Version = version
	if cfg.App.Version != "" && cfg.App.Version != "dev" {
		lc.Version = cfg.App.Version
	}
	return obs.NewLogger(lc)
}
