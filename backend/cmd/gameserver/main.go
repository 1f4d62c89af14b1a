package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/xcrap/micromachines/backend/internal/config"
	"github.com/xcrap/micromachines/backend/internal/gameserver"
	"github.com/xcrap/micromachines/backend/internal/shared/logger"
	"github.com/xcrap/micromachines/backend/internal/telemetry"
	"github.com/xcrap/micromachines/backend/internal/terrain"
)

func main() {
	log := logger.New("gameserver")

	cfg, err := config.Load(getEnv("MICROMACHINES_CONFIG_DIR", "."))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.SetLevel(cfg.Server.LogLevel)

	m, err := terrain.Generate(cfg.Map)
	if err != nil {
		log.Fatal().Err(err).Msg("generate map")
	}
	store, err := telemetry.NewStore(telemetry.DefaultCapacity)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetry store")
	}

	srv := gameserver.New(cfg, m, store, log)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info().
		Str("addr", cfg.Server.Addr).
		Int64("seed", cfg.Map.Seed).
		Int("tick_rate", cfg.Server.TickRate).
		Int("replication_rate", cfg.Server.ReplicationRate).
		Msg("game server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
