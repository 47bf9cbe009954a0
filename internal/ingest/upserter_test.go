package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/yt-ingest/internal/youtube"
)

func newTestUpserter(client *MockClient, st *MockStore, now time.Time) *Upserter {
	u := NewUpserter(client, st)
	u.now = func() time.Time { return now }
	return u
}

func sampleChannel(id string) *youtube.ChannelInfo {
	return &youtube.ChannelInfo{
		ID:              id,
		Title:           "Channel " + id,
		PublishedAt:     "2015-06-01T12:00:00Z",
		SubscriberCount: ptr(int64(100)),
		ViewCount:       5000,
		VideoCount:      5,
	}
}

func sampleVideo(id, channelID string) *youtube.VideoInfo {
	return &youtube.VideoInfo{
		ID:           id,
		ChannelID:    channelID,
		Title:        "Video " + id,
		Description:  ptr("about " + id),
		PublishedAt:  "2024-03-10T08:30:00Z",
		Tags:         []string{"go", "data"},
		CategoryID:   ptr("28"),
		Duration:     "PT1H2M30S",
		ViewCount:    1000,
		LikeCount:    ptr(int64(50)),
		CommentCount: ptr(int64(4)),
	}
}

func TestUpsertChannel_SecondCallUpdatesSingleRow(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	st := NewMockStore()
	client.AddChannel(sampleChannel("UC1"))

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := newTestUpserter(client, st, first).UpsertChannel(ctx, "UC1")
	require.NoError(t, err)

	updated := sampleChannel("UC1")
	updated.Title = "Renamed"
	updated.SubscriberCount = nil
	updated.ViewCount = 9000
	updated.VideoCount = 6
	client.AddChannel(updated)

	second := first.Add(time.Hour)
	saved, err := newTestUpserter(client, st, second).UpsertChannel(ctx, "UC1")
	require.NoError(t, err)

	require.Len(t, st.channels, 1)
	got := st.channels["UC1"]
	assert.Equal(t, "Renamed", got.Name)
	assert.Nil(t, got.SubscriberCount)
	assert.Equal(t, int64(9000), got.TotalViews)
	assert.Equal(t, int64(6), got.VideoCount)
	assert.Equal(t, "https://www.youtube.com/channel/UC1", got.URL)
	assert.Equal(t, time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC), got.PublishedAt)
	assert.Equal(t, second, got.FetchedAt)
	assert.Equal(t, "Renamed", saved.Name)
}

func TestUpsertChannel_NotFound(t *testing.T) {
	st := NewMockStore()
	_, err := newTestUpserter(NewMockClient(), st, time.Now()).UpsertChannel(context.Background(), "UCmissing")

	assert.ErrorIs(t, err, ErrChannelNotFound)
	assert.Empty(t, st.channels)
}

func TestUpsertChannel_MalformedTimestamp(t *testing.T) {
	client := NewMockClient()
	st := NewMockStore()
	info := sampleChannel("UC1")
	info.PublishedAt = "yesterday"
	client.AddChannel(info)

	_, err := newTestUpserter(client, st, time.Now()).UpsertChannel(context.Background(), "UC1")

	assert.Error(t, err)
	assert.Empty(t, st.channels)
}

func TestUpsertVideo_TwiceGivesOneVideoTwoSnapshots(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	st := NewMockStore()
	client.AddChannel(sampleChannel("UC1"))
	client.AddVideo(sampleVideo("v1", "UC1"))

	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	u := newTestUpserter(client, st, t0)
	_, err := u.UpsertChannel(ctx, "UC1")
	require.NoError(t, err)

	outcome, err := u.UpsertVideo(ctx, "v1", "UC1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, outcome)

	client.videos["v1"].ViewCount = 1500
	client.videos["v1"].Title = "Retitled"
	u.now = func() time.Time { return t0.Add(24 * time.Hour) }

	outcome, err = u.UpsertVideo(ctx, "v1", "UC1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSaved, outcome)

	require.Len(t, st.videos, 1)
	video := st.videos["v1"]
	assert.Equal(t, "Retitled", video.Title)
	assert.Equal(t, 3750, video.DurationSeconds)
	require.NotNil(t, video.Tags)
	assert.Equal(t, "go,data", *video.Tags)
	require.NotNil(t, video.Category)
	assert.Equal(t, "28", *video.Category)

	snaps := st.snapshotsFor("v1")
	require.Len(t, snaps, 2)
	assert.Equal(t, int64(1000), snaps[0].Views)
	assert.Equal(t, int64(1500), snaps[1].Views)
	assert.True(t, snaps[1].SnapshotAt.After(snaps[0].SnapshotAt))
}

func TestUpsertVideo_AbsentVideoWritesNothing(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	st := NewMockStore()
	client.AddChannel(sampleChannel("UC1"))

	u := newTestUpserter(client, st, time.Now())
	_, err := u.UpsertChannel(ctx, "UC1")
	require.NoError(t, err)

	outcome, err := u.UpsertVideo(ctx, "gone", "UC1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
	assert.Empty(t, st.videos)
	assert.Empty(t, st.snapshots)
}

func TestUpsertVideo_MissingOptionalFieldsStoredAsNull(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	st := NewMockStore()
	client.AddChannel(sampleChannel("UC1"))
	client.AddVideo(&youtube.VideoInfo{
		ID:          "v1",
		ChannelID:   "UC1",
		Title:       "Bare",
		PublishedAt: "2024-03-10T08:30:00Z",
		Duration:    "not-a-duration",
		ViewCount:   7,
	})

	u := newTestUpserter(client, st, time.Now())
	_, err := u.UpsertChannel(ctx, "UC1")
	require.NoError(t, err)
	_, err = u.UpsertVideo(ctx, "v1", "UC1")
	require.NoError(t, err)

	video := st.videos["v1"]
	assert.Nil(t, video.Description)
	assert.Nil(t, video.Tags)
	assert.Nil(t, video.Category)
	assert.Equal(t, 0, video.DurationSeconds)

	snaps := st.snapshotsFor("v1")
	require.Len(t, snaps, 1)
	assert.Nil(t, snaps[0].Likes)
	assert.Nil(t, snaps[0].Comments)
}

func TestUpsertVideo_RemoteFailureIsRemoteError(t *testing.T) {
	client := NewMockClient()
	st := NewMockStore()
	client.videoErrs["v1"] = errors.New("connection reset")

	outcome, err := newTestUpserter(client, st, time.Now()).UpsertVideo(context.Background(), "v1", "UC1")

	assert.Equal(t, OutcomeFailed, outcome)
	var remoteErr *RemoteError
	assert.True(t, errors.As(err, &remoteErr))
	assert.Empty(t, st.videos)
}

func TestUpsertVideo_StoreFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	st := NewMockStore()
	client.AddVideo(sampleVideo("v1", "UC1"))

	// no channel row, so the video write violates the foreign key
	outcome, err := newTestUpserter(client, st, time.Now()).UpsertVideo(ctx, "v1", "UC1")

	assert.Equal(t, OutcomeFailed, outcome)
	require.Error(t, err)
	var remoteErr *RemoteError
	assert.False(t, errors.As(err, &remoteErr))
	assert.Empty(t, st.videos)
	assert.Empty(t, st.snapshots)
}

func TestJoinTags(t *testing.T) {
	assert.Nil(t, joinTags(nil))
	assert.Nil(t, joinTags([]string{}))
	assert.Equal(t, "a", *joinTags([]string{"a"}))
	assert.Equal(t, "a,b c", *joinTags([]string{"a", "b c"}))
}
