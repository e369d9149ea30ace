// davenportd serves the document wire API over a local pebble store.
//
//	go run ./cmd/davenportd -config davenport.json
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BobWall23/davenport/internal/config"
	"github.com/BobWall23/davenport/internal/server"
	"github.com/BobWall23/davenport/pkg/db/pebble"
	"github.com/BobWall23/davenport/pkg/log"
)

func main() {
	cfgPath := flag.String("config", "davenport.json", "optional config override file")
	addr := flag.String("addr", "", "listen address, overrides config")
	dataDir := flag.String("data", "", "pebble data directory, overrides config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	initLogging(cfg)

	store, err := pebble.NewStore(cfg.DataDir)
	if err != nil {
		log.Root.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("opening store")
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(store, cfg.Bucket, cfg.ComputePoolSize).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Root.Info().Str("addr", cfg.ListenAddr).Str("bucket", cfg.Bucket).Msg("serving")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Root.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Root.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Root.Error().Err(err).Msg("shutdown")
	}
}

func initLogging(cfg config.Config) {
	level, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	typ := log.ConsoleLogger
	if cfg.LogFormat == "json" {
		typ = log.JSONLogger
	}
	log.Init(log.Options{LogLevel: level, Type: typ})
}
