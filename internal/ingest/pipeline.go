package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/metrics"
	"github.com/user/yt-ingest/internal/store"
	"github.com/user/yt-ingest/internal/youtube"
)

// Stage is a pipeline state. Stages only move forward.
type Stage string

const (
	StageResolving      Stage = "resolving"
	StageChannelFetch   Stage = "channel_fetch"
	StageEnumerating    Stage = "enumerating"
	StageVideoFetchLoop Stage = "video_fetch_loop"
	StageDone           Stage = "done"
	StageUnresolved     Stage = "unresolved"
)

// DefaultPaceDelay is the pause after every remote video fetch
const DefaultPaceDelay = 400 * time.Millisecond

// Pacer is applied after each remote video fetch
type Pacer interface {
	Wait(ctx context.Context) error
}

// SleepPacer waits a fixed delay
type SleepPacer struct {
	Delay time.Duration
}

// Wait sleeps for the delay or until ctx is done
func (p SleepPacer) Wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result summarises one pipeline run
type Result struct {
	RunID      string
	Reference  string
	ChannelID  string
	Stage      Stage
	Discovered int
	Saved      int
	Skipped    int
	Failed     int
	Duration   time.Duration
	Err        error
}

// Pipeline resolves a channel reference and ingests the channel and its most
// recent videos
type Pipeline struct {
	resolver   *youtube.Resolver
	enumerator *youtube.Enumerator
	upserter   *Upserter
	pacer      Pacer
}

// NewPipeline wires the pipeline components around client and st
func NewPipeline(client youtube.Client, st store.Transactor, pacer Pacer) *Pipeline {
	if pacer == nil {
		pacer = SleepPacer{Delay: DefaultPaceDelay}
	}
	return &Pipeline{
		resolver:   youtube.NewResolver(client),
		enumerator: youtube.NewEnumerator(client),
		upserter:   NewUpserter(client, st),
		pacer:      pacer,
	}
}

// Run executes one ingestion of the channel named by ref, processing at most
// limit videos. The returned Result is never nil; its Stage is the last stage
// entered and its Err is also returned.
func (p *Pipeline) Run(ctx context.Context, ref string, limit int) (*Result, error) {
	res := &Result{
		RunID:     uuid.NewString(),
		Reference: ref,
		Stage:     StageResolving,
	}
	start := time.Now()
	logger := log.With().Str("run_id", res.RunID).Logger()

	finish := func(err error) (*Result, error) {
		res.Duration = time.Since(start)
		res.Err = err
		metrics.RecordRun(string(res.Stage), res.Duration)

		event := logger.Info()
		if err != nil {
			event = logger.Error().Err(err)
		}
		event.
			Str("stage", string(res.Stage)).
			Str("channel_id", res.ChannelID).
			Int("discovered", res.Discovered).
			Int("saved", res.Saved).
			Int("skipped", res.Skipped).
			Int("failed", res.Failed).
			Dur("duration", res.Duration).
			Msg("Ingest run finished")
		return res, err
	}

	logger.Info().Str("reference", ref).Int("limit", limit).Msg("Resolving channel reference")
	channelID, err := p.resolver.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, youtube.ErrUnresolvable) {
			res.Stage = StageUnresolved
		}
		return finish(err)
	}
	res.ChannelID = channelID

	res.Stage = StageChannelFetch
	logger.Info().Str("channel_id", channelID).Msg("Fetching channel")
	if _, err := p.upserter.UpsertChannel(ctx, channelID); err != nil {
		return finish(err)
	}

	res.Stage = StageEnumerating
	videoIDs, err := p.enumerator.Enumerate(ctx, channelID, limit)
	if err != nil {
		return finish(fmt.Errorf("enumerate videos: %w", err))
	}
	res.Discovered = len(videoIDs)
	logger.Info().Int("count", len(videoIDs)).Msg("Videos discovered")

	res.Stage = StageVideoFetchLoop
	for i, videoID := range videoIDs {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}

		outcome, err := p.upserter.UpsertVideo(ctx, videoID, channelID)
		switch outcome {
		case OutcomeSaved:
			res.Saved++
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeFailed:
			res.Failed++
		}

		var remoteErr *RemoteError
		if err != nil && !errors.As(err, &remoteErr) {
			return finish(err)
		}
		if err != nil {
			logger.Warn().Err(err).Str("video_id", videoID).Msg("Video failed, continuing")
		} else {
			logger.Info().
				Str("video_id", videoID).
				Str("outcome", string(outcome)).
				Int("progress", i+1).
				Int("total", len(videoIDs)).
				Msg("Video processed")
		}

		if err := p.pacer.Wait(ctx); err != nil {
			return finish(err)
		}
	}

	res.Stage = StageDone
	return finish(nil)
}
