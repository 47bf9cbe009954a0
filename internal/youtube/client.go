package youtube

import (
	"context"
	"errors"
)

// MaxPageSize is the largest page the listing endpoint returns
const MaxPageSize = 50

// ErrNotFound is returned when a lookup yields zero items
var ErrNotFound = errors.New("not found")

// Client defines the read operations consumed from the platform API
type Client interface {
	// GetChannel fetches channel snippet and statistics
	GetChannel(ctx context.Context, channelID string) (*ChannelInfo, error)

	// SearchChannels returns channel IDs matching query, best match first
	SearchChannels(ctx context.Context, query string, maxResults int64) ([]string, error)

	// ListChannelVideos returns one page of a channel's videos, newest first
	ListChannelVideos(ctx context.Context, channelID, pageToken string, pageSize int64) (*VideoPage, error)

	// GetVideo fetches video snippet, statistics and content details
	GetVideo(ctx context.Context, videoID string) (*VideoInfo, error)
}

// ChannelInfo is a fetched channel record
type ChannelInfo struct {
	ID              string
	Title           string
	PublishedAt     string
	SubscriberCount *int64 // nil when hidden by the owner
	ViewCount       int64
	VideoCount      int64
}

// VideoInfo is a fetched video record
type VideoInfo struct {
	ID           string
	ChannelID    string
	Title        string
	Description  *string
	PublishedAt  string
	Tags         []string
	CategoryID   *string
	Duration     string
	ViewCount    int64
	LikeCount    *int64 // nil when likes are hidden
	CommentCount *int64 // nil when comments are disabled
}

// VideoPage is one page of a channel listing
type VideoPage struct {
	VideoIDs      []string
	NextPageToken string
}
