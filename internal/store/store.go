package store

import (
	"context"

	"github.com/user/yt-ingest/internal/model"
)

// Tx is the keyed-record surface used inside a single atomic unit.
// Getters return nil, nil when the record does not exist.
type Tx interface {
	GetChannel(ctx context.Context, channelID string) (*model.Channel, error)
	SaveChannel(ctx context.Context, channel *model.Channel) error
	GetVideo(ctx context.Context, videoID string) (*model.Video, error)
	SaveVideo(ctx context.Context, video *model.Video) error
	AddSnapshot(ctx context.Context, snapshot *model.StatisticsSnapshot) error
}

// Transactor runs fn inside one transaction, committing when fn returns nil
type Transactor interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Store defines the interface for data persistence operations
type Store interface {
	Tx
	Transactor

	// Read side
	ListVideos(ctx context.Context, channelID string, limit int) ([]*model.Video, error)
	ListSnapshots(ctx context.Context, videoID string, limit int) ([]*model.StatisticsSnapshot, error)
	CountVideos(ctx context.Context) (int64, error)
	CountSnapshots(ctx context.Context, videoID string) (int64, error)

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
