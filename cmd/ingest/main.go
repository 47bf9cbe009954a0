package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/config"
	"github.com/user/yt-ingest/internal/ingest"
	"github.com/user/yt-ingest/internal/scheduler"
	"github.com/user/yt-ingest/internal/server"
	"github.com/user/yt-ingest/internal/store"
	"github.com/user/yt-ingest/internal/youtube"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}

	channelRef := flag.String("channel", cfg.Ingest.Channel, "channel ID, channel URL or @handle")
	maxVideos := flag.Int("max-videos", cfg.Ingest.MaxVideos, "maximum number of recent videos to ingest")
	watch := flag.Bool("watch", cfg.Ingest.Interval > 0, "re-ingest periodically and serve the HTTP API")
	flag.Parse()

	cfg.Ingest.MaxVideos = *maxVideos
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	setupLogger(&cfg.Log)

	ref := strings.TrimSpace(*channelRef)
	if ref == "" {
		ref = prompt("Channel URL, ID or @handle: ")
	}
	if ref == "" {
		log.Error().Msg("No channel reference given")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormStore, err := store.NewGormStore(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open database")
		return 1
	}
	defer func() {
		if err := gormStore.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}()
	log.Info().Str("driver", cfg.DB.Driver).Msg("Database connection established")

	client, err := youtube.NewAPIClient(ctx, &cfg.YouTube)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create API client")
		return 1
	}

	pipeline := ingest.NewPipeline(client, gormStore, ingest.SleepPacer{Delay: cfg.Ingest.PaceDelay})

	if *watch {
		interval := cfg.Ingest.Interval
		if interval <= 0 {
			interval = time.Hour
		}
		return runWatch(ctx, cfg, pipeline, gormStore, ref, interval)
	}

	res, err := pipeline.Run(ctx, ref, cfg.Ingest.MaxVideos)
	fmt.Println(ingest.FormatResult(res))
	if err != nil {
		return 1
	}
	return 0
}

// runWatch re-ingests ref every interval and serves the HTTP API until a
// shutdown signal arrives
func runWatch(ctx context.Context, cfg *config.Config, pipeline *ingest.Pipeline, st store.Store, ref string, interval time.Duration) int {
	sched := scheduler.NewScheduler(pipeline, st, ref, cfg.Ingest.MaxVideos, interval)
	httpServer := server.NewServer(st, &cfg.Server)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sched.Start(ctx)
	log.Info().Str("channel", ref).Dur("interval", interval).Msg("Watch mode started")

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	sched.Stop()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	}

	if res := sched.LastResult(); res != nil {
		fmt.Println(ingest.FormatResult(res))
	}

	select {
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
	return 0
}

func setupLogger(cfg *config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		return
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Caller().Logger()
}

func prompt(label string) string {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}
