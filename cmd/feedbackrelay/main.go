package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"feedbackrelay/internal/app"
	"feedbackrelay/pkg/config"
	"feedbackrelay/pkg/logger"
	"feedbackrelay/pkg/shutdown"
	"feedbackrelay/pkg/state"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseConfigFlags()
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	envCfg, envRes := config.ParseConfigEnvs()

	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		log.Fatalf("failed to resolve config: %v", err)
	}

	logger.InitWithLevel(eff.Config.Logging.Level)
	defer logger.Sync()

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	a, err := app.New(eff, version, commit, buildDate)
	if err != nil {
		shutdown.Abort("startup failed", err, state.PathsVar.Crash)
	}

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server failed", err, state.PathsVar.Crash)
	}
}
