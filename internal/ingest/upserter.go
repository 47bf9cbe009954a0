package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/metrics"
	"github.com/user/yt-ingest/internal/model"
	"github.com/user/yt-ingest/internal/store"
	"github.com/user/yt-ingest/internal/youtube"
)

// ErrChannelNotFound is returned when the platform has no channel for an ID
var ErrChannelNotFound = errors.New("channel not found")

const channelURLPrefix = "https://www.youtube.com/channel/"

// Outcome describes what UpsertVideo did
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Upserter writes fetched channel and video records into the store
type Upserter struct {
	client youtube.Client
	store  store.Transactor
	now    func() time.Time
}

// NewUpserter creates an upserter writing through st
func NewUpserter(client youtube.Client, st store.Transactor) *Upserter {
	return &Upserter{
		client: client,
		store:  st,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// UpsertChannel fetches the channel and writes it as a single row keyed by its ID.
// Every descriptive field and counter is overwritten on each call.
func (u *Upserter) UpsertChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	info, err := u.client.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, youtube.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
		}
		return nil, fmt.Errorf("fetch channel: %w", err)
	}

	publishedAt, err := youtube.ParseTimestamp(info.PublishedAt)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}

	var saved *model.Channel
	err = u.store.InTx(ctx, func(tx store.Tx) error {
		channel, err := tx.GetChannel(ctx, channelID)
		if err != nil {
			return err
		}
		if channel == nil {
			channel = &model.Channel{ChannelID: channelID}
		}

		channel.Name = info.Title
		channel.URL = channelURLPrefix + channelID
		channel.SubscriberCount = info.SubscriberCount
		channel.TotalViews = info.ViewCount
		channel.VideoCount = info.VideoCount
		channel.PublishedAt = publishedAt
		channel.FetchedAt = u.now()

		if err := tx.SaveChannel(ctx, channel); err != nil {
			return err
		}
		saved = channel
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save channel %s: %w", channelID, err)
	}

	log.Info().
		Str("channel_id", channelID).
		Str("name", saved.Name).
		Int64("videos", saved.VideoCount).
		Msg("Channel saved")

	return saved, nil
}

// UpsertVideo fetches one video, overwrites its row and appends a statistics
// snapshot in the same transaction. A video the platform no longer returns is
// skipped without writing anything.
func (u *Upserter) UpsertVideo(ctx context.Context, videoID, channelID string) (Outcome, error) {
	info, err := u.client.GetVideo(ctx, videoID)
	if err != nil {
		if errors.Is(err, youtube.ErrNotFound) {
			log.Debug().Str("video_id", videoID).Msg("Video not returned, skipping")
			metrics.RecordVideo(string(OutcomeSkipped))
			return OutcomeSkipped, nil
		}
		metrics.RecordVideo(string(OutcomeFailed))
		return OutcomeFailed, &RemoteError{Err: fmt.Errorf("fetch video %s: %w", videoID, err)}
	}

	publishedAt, err := youtube.ParseTimestamp(info.PublishedAt)
	if err != nil {
		metrics.RecordVideo(string(OutcomeFailed))
		return OutcomeFailed, &RemoteError{Err: fmt.Errorf("video %s: %w", videoID, err)}
	}

	now := u.now()
	err = u.store.InTx(ctx, func(tx store.Tx) error {
		video, err := tx.GetVideo(ctx, videoID)
		if err != nil {
			return err
		}
		if video == nil {
			video = &model.Video{VideoID: videoID}
		}

		video.ChannelID = channelID
		video.Title = info.Title
		video.Description = info.Description
		video.PublishedAt = publishedAt
		video.DurationSeconds = youtube.ParseDuration(info.Duration)
		video.Tags = joinTags(info.Tags)
		video.Category = info.CategoryID

		if err := tx.SaveVideo(ctx, video); err != nil {
			return err
		}

		return tx.AddSnapshot(ctx, &model.StatisticsSnapshot{
			VideoID:    videoID,
			SnapshotAt: now,
			Views:      info.ViewCount,
			Likes:      info.LikeCount,
			Comments:   info.CommentCount,
		})
	})
	if err != nil {
		metrics.RecordVideo(string(OutcomeFailed))
		return OutcomeFailed, fmt.Errorf("save video %s: %w", videoID, err)
	}

	metrics.RecordVideo(string(OutcomeSaved))
	metrics.RecordSnapshot()
	return OutcomeSaved, nil
}

// RemoteError marks a per-video failure that came from the platform rather
// than from the store
type RemoteError struct {
	Err error
}

func (e *RemoteError) Error() string { return e.Err.Error() }

func (e *RemoteError) Unwrap() error { return e.Err }

// joinTags stores tags comma separated; no tags is stored as null
func joinTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	return &joined
}
