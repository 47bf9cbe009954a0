package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/yt-ingest/internal/config"
	"github.com/user/yt-ingest/internal/metrics"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const videosPath = "youtube/v3/videos"

// APIClient implements Client using the YouTube Data API v3
type APIClient struct {
	service    *yt.Service
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// NewAPIClient creates a rate-limited API client presenting cfg.APIKey
func NewAPIClient(ctx context.Context, cfg *config.YouTubeConfig) (*APIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}

	baseURL := cfg.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &keyTransport{
			apiKey: cfg.APIKey,
			base:   http.DefaultTransport,
		},
	}

	service, err := yt.NewService(ctx, option.WithHTTPClient(httpClient), option.WithEndpoint(baseURL))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &APIClient{
		service:    service,
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(cfg.MaxQPS), 1),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Second,
	}, nil
}

// keyTransport appends the API key to every outgoing request
type keyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *keyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", t.apiKey)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

// GetChannel fetches channel snippet and statistics
func (c *APIClient) GetChannel(ctx context.Context, channelID string) (*ChannelInfo, error) {
	var resp *yt.ChannelListResponse
	err := c.withRetry(ctx, "channels", func() error {
		var err error
		resp, err = c.service.Channels.List([]string{"snippet", "statistics"}).
			Id(channelID).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("channels.list %s: %w", channelID, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}

	item := resp.Items[0]
	info := &ChannelInfo{ID: item.Id}
	if item.Snippet != nil {
		info.Title = item.Snippet.Title
		info.PublishedAt = item.Snippet.PublishedAt
	}
	if st := item.Statistics; st != nil {
		info.ViewCount = int64(st.ViewCount)
		info.VideoCount = int64(st.VideoCount)
		if !st.HiddenSubscriberCount {
			subs := int64(st.SubscriberCount)
			info.SubscriberCount = &subs
		}
	}
	return info, nil
}

// SearchChannels returns channel IDs for query, best match first
func (c *APIClient) SearchChannels(ctx context.Context, query string, maxResults int64) ([]string, error) {
	var resp *yt.SearchListResponse
	err := c.withRetry(ctx, "search.channel", func() error {
		var err error
		resp, err = c.service.Search.List([]string{"snippet"}).
			Q(query).
			Type("channel").
			MaxResults(maxResults).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search.list q=%s: %w", query, err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		id := ""
		if item.Id != nil {
			id = item.Id.ChannelId
		}
		if id == "" && item.Snippet != nil {
			id = item.Snippet.ChannelId
		}
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ListChannelVideos returns one page of a channel's videos ordered by date
func (c *APIClient) ListChannelVideos(ctx context.Context, channelID, pageToken string, pageSize int64) (*VideoPage, error) {
	var resp *yt.SearchListResponse
	err := c.withRetry(ctx, "search.video", func() error {
		call := c.service.Search.List([]string{"id"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		var err error
		resp, err = call.Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("search.list channel=%s: %w", channelID, err)
	}

	page := &VideoPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			page.VideoIDs = append(page.VideoIDs, item.Id.VideoId)
		}
	}
	return page, nil
}

// videoListResponse mirrors the videos endpoint with pointer counters, so an
// omitted likeCount or commentCount stays distinguishable from zero
type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			ChannelID   string   `json:"channelId"`
			Title       string   `json:"title"`
			Description *string  `json:"description"`
			PublishedAt string   `json:"publishedAt"`
			Tags        []string `json:"tags"`
			CategoryID  *string  `json:"categoryId"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount    *string `json:"viewCount"`
			LikeCount    *string `json:"likeCount"`
			CommentCount *string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// GetVideo fetches video snippet, statistics and content details
func (c *APIClient) GetVideo(ctx context.Context, videoID string) (*VideoInfo, error) {
	params := url.Values{
		"part": {"snippet,statistics,contentDetails"},
		"id":   {videoID},
	}
	target := c.baseURL + videosPath + "?" + params.Encode()

	var payload videoListResponse
	err := c.withRetry(ctx, "videos", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("create request error: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := googleapi.CheckResponse(resp); err != nil {
			return err
		}
		payload = videoListResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode videos response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("videos.list %s: %w", videoID, err)
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	item := payload.Items[0]
	views, _ := parseCount(item.Statistics.ViewCount)
	return &VideoInfo{
		ID:           item.ID,
		ChannelID:    item.Snippet.ChannelID,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		Tags:         item.Snippet.Tags,
		CategoryID:   item.Snippet.CategoryID,
		Duration:     item.ContentDetails.Duration,
		ViewCount:    views,
		LikeCount:    optionalCount(item.Statistics.LikeCount),
		CommentCount: optionalCount(item.Statistics.CommentCount),
	}, nil
}

// withRetry runs fn under the rate limiter, retrying transient failures with
// exponential backoff: 1s, 2s, 4s...
func (c *APIClient) withRetry(ctx context.Context, endpoint string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		metrics.RecordAPICall(endpoint)
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsTransient(err) {
			return err
		}

		if attempt < c.maxRetries {
			backoff := c.backoff << attempt
			log.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Transient API failure, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// IsTransient reports whether err is worth retrying: throttling, server
// errors and transport failures. Context errors never are.
func IsTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
