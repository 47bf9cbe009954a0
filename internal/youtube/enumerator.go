package youtube

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// maxEmptyPages bounds consecutive pages that add no IDs yet carry a cursor
const maxEmptyPages = 3

// VideoLister is the part of Client the enumerator walks
type VideoLister interface {
	ListChannelVideos(ctx context.Context, channelID, pageToken string, pageSize int64) (*VideoPage, error)
}

// Enumerator collects a channel's most recent video IDs across pages
type Enumerator struct {
	lister   VideoLister
	pageSize int64
}

// NewEnumerator creates an enumerator requesting full pages
func NewEnumerator(lister VideoLister) *Enumerator {
	return &Enumerator{
		lister:   lister,
		pageSize: MaxPageSize,
	}
}

// Enumerate returns up to limit video IDs, newest first. Each call starts a
// fresh cursor walk and stops once limit is reached or the cursor runs out.
func (e *Enumerator) Enumerate(ctx context.Context, channelID string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	var videoIDs []string
	pageToken := ""
	emptyPages := 0

	for page := 1; len(videoIDs) < limit; page++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := e.lister.ListChannelVideos(ctx, channelID, pageToken, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("list videos page %d: %w", page, err)
		}

		videoIDs = append(videoIDs, resp.VideoIDs...)
		log.Debug().
			Str("channelID", channelID).
			Int("page", page).
			Int("pageCount", len(resp.VideoIDs)).
			Int("total", len(videoIDs)).
			Msg("Listed channel videos page")

		if resp.NextPageToken == "" {
			break
		}
		if resp.NextPageToken == pageToken {
			log.Warn().Str("channelID", channelID).Int("page", page).Msg("Listing cursor did not advance, stopping")
			break
		}
		if len(resp.VideoIDs) == 0 {
			emptyPages++
			if emptyPages >= maxEmptyPages {
				log.Warn().Str("channelID", channelID).Int("page", page).Msg("Listing returned only empty pages, stopping")
				break
			}
		} else {
			emptyPages = 0
		}
		pageToken = resp.NextPageToken
	}

	if len(videoIDs) > limit {
		videoIDs = videoIDs[:limit]
	}
	return videoIDs, nil
}
