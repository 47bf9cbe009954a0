package ingest

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/user/yt-ingest/internal/model"
	"github.com/user/yt-ingest/internal/store"
	"github.com/user/yt-ingest/internal/youtube"
)

// MockClient implements youtube.Client over in-memory fixtures
type MockClient struct {
	mu            sync.Mutex
	channels      map[string]*youtube.ChannelInfo
	channelVideos map[string][]string
	videos        map[string]*youtube.VideoInfo
	handles       map[string][]string
	videoErrs     map[string]error

	searchCalls int
	listCalls   int
	videoCalls  []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		channels:      make(map[string]*youtube.ChannelInfo),
		channelVideos: make(map[string][]string),
		videos:        make(map[string]*youtube.VideoInfo),
		handles:       make(map[string][]string),
		videoErrs:     make(map[string]error),
	}
}

func (m *MockClient) AddChannel(info *youtube.ChannelInfo) {
	m.channels[info.ID] = info
}

// AddVideo registers a video and appends it to its channel listing, so
// videos should be added newest first
func (m *MockClient) AddVideo(info *youtube.VideoInfo) {
	m.videos[info.ID] = info
	m.channelVideos[info.ChannelID] = append(m.channelVideos[info.ChannelID], info.ID)
}

func (m *MockClient) GetChannel(ctx context.Context, channelID string) (*youtube.ChannelInfo, error) {
	info, ok := m.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, youtube.ErrNotFound)
	}
	copied := *info
	return &copied, nil
}

func (m *MockClient) SearchChannels(ctx context.Context, query string, maxResults int64) ([]string, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()
	return m.handles[query], nil
}

func (m *MockClient) ListChannelVideos(ctx context.Context, channelID, pageToken string, pageSize int64) (*youtube.VideoPage, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, fmt.Errorf("bad page token %q", pageToken)
		}
		start = n
	}

	ids := m.channelVideos[channelID]
	end := start + int(pageSize)
	if end > len(ids) {
		end = len(ids)
	}

	page := &youtube.VideoPage{VideoIDs: append([]string(nil), ids[start:end]...)}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (m *MockClient) GetVideo(ctx context.Context, videoID string) (*youtube.VideoInfo, error) {
	m.mu.Lock()
	m.videoCalls = append(m.videoCalls, videoID)
	m.mu.Unlock()

	if err, ok := m.videoErrs[videoID]; ok {
		return nil, err
	}
	info, ok := m.videos[videoID]
	if !ok {
		return nil, fmt.Errorf("video %s: %w", videoID, youtube.ErrNotFound)
	}
	copied := *info
	return &copied, nil
}

// MockStore is an in-memory store.Tx and store.Transactor. A failed InTx
// restores the state it started from.
type MockStore struct {
	mu        sync.Mutex
	channels  map[string]model.Channel
	videos    map[string]model.Video
	snapshots []model.StatisticsSnapshot
	nextID    uint

	saveVideoErr error
}

func NewMockStore() *MockStore {
	return &MockStore{
		channels: make(map[string]model.Channel),
		videos:   make(map[string]model.Video),
	}
}

func (m *MockStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := make(map[string]model.Channel, len(m.channels))
	for k, v := range m.channels {
		channels[k] = v
	}
	videos := make(map[string]model.Video, len(m.videos))
	for k, v := range m.videos {
		videos[k] = v
	}
	snapshots := len(m.snapshots)

	if err := fn(m); err != nil {
		m.channels = channels
		m.videos = videos
		m.snapshots = m.snapshots[:snapshots]
		return err
	}
	return nil
}

func (m *MockStore) GetChannel(ctx context.Context, channelID string) (*model.Channel, error) {
	c, ok := m.channels[channelID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MockStore) SaveChannel(ctx context.Context, channel *model.Channel) error {
	m.channels[channel.ChannelID] = *channel
	return nil
}

func (m *MockStore) GetVideo(ctx context.Context, videoID string) (*model.Video, error) {
	v, ok := m.videos[videoID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MockStore) SaveVideo(ctx context.Context, video *model.Video) error {
	if m.saveVideoErr != nil {
		return m.saveVideoErr
	}
	if _, ok := m.channels[video.ChannelID]; !ok {
		return fmt.Errorf("foreign key: channel %s missing", video.ChannelID)
	}
	m.videos[video.VideoID] = *video
	return nil
}

func (m *MockStore) AddSnapshot(ctx context.Context, snapshot *model.StatisticsSnapshot) error {
	if _, ok := m.videos[snapshot.VideoID]; !ok {
		return fmt.Errorf("foreign key: video %s missing", snapshot.VideoID)
	}
	m.nextID++
	snapshot.ID = m.nextID
	m.snapshots = append(m.snapshots, *snapshot)
	return nil
}

func (m *MockStore) snapshotsFor(videoID string) []model.StatisticsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.StatisticsSnapshot
	for _, s := range m.snapshots {
		if s.VideoID == videoID {
			out = append(out, s)
		}
	}
	return out
}

// RecordingPacer counts waits without sleeping
type RecordingPacer struct {
	waits int
}

func (p *RecordingPacer) Wait(ctx context.Context) error {
	p.waits++
	return ctx.Err()
}

var (
	_ youtube.Client   = (*MockClient)(nil)
	_ store.Transactor = (*MockStore)(nil)
	_ store.Tx         = (*MockStore)(nil)
	_ Pacer            = (*RecordingPacer)(nil)
)

func ptr[T any](v T) *T {
	return &v
}
