package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/infrastructure/youtube"
	"auto_repost_youtube/internal/repository/memory"
	"auto_repost_youtube/internal/vault"
)

var testHexKey = strings.Repeat("ab", 32)

type stubRefresher struct {
	token  string
	expiry time.Time
	err    error
	calls  int
}

func (s *stubRefresher) Refresh(_ context.Context, _ string) (string, time.Time, error) {
	s.calls++
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	return s.token, s.expiry, nil
}

type stubDownloader struct {
	err   error
	calls int
}

func (s *stubDownloader) Download(_ context.Context, videoID string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "/tmp/downloads/" + videoID + ".mp4", nil
}

type stubUploader struct {
	destID   string
	err      error
	requests []youtube.UploadRequest
}

func (s *stubUploader) Upload(_ context.Context, req youtube.UploadRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.destID, nil
}

type publisherFixture struct {
	publisher *Publisher
	videos    *memory.VideoRepository
	users     *memory.UserRepository
	schedules *memory.ScheduleRepository
	vault     *vault.Vault
	refresher *stubRefresher
	download  *stubDownloader
	upload    *stubUploader
}

func newPublisherFixture(t *testing.T) *publisherFixture {
	t.Helper()

	v, err := vault.New(testHexKey)
	require.NoError(t, err)

	f := &publisherFixture{
		videos:    memory.NewVideoRepository(),
		users:     memory.NewUserRepository(),
		schedules: memory.NewScheduleRepository(),
		vault:     v,
		refresher: &stubRefresher{token: "refreshed-access", expiry: time.Now().Add(time.Hour)},
		download:  &stubDownloader{},
		upload:    &stubUploader{destID: "new-video-id"},
	}

	cfg := &config.Config{
		DailyVideoLimit: 2,
		UploadTimeout:   time.Minute,
		ClaimLease:      15 * time.Minute,
	}
	tokens := NewTokenManager(v, f.users, f.refresher)
	quota := NewQuotaTracker(f.videos)
	f.publisher = NewPublisher(cfg, f.videos, f.users, f.schedules, tokens, quota, f.download, f.upload)
	return f
}

func (f *publisherFixture) seedUser(t *testing.T, expiry *time.Time) *domain.User {
	t.Helper()

	access, err := f.vault.Encrypt("plain-access")
	require.NoError(t, err)
	refresh, err := f.vault.Encrypt("plain-refresh")
	require.NoError(t, err)

	user := &domain.User{
		Email:                  "user@example.com",
		AccessToken:            access,
		RefreshToken:           refresh,
		TokenExpiry:            expiry,
		DestinationChannelID:   "UCdest",
		DestinationChannelName: "Destination",
	}
	require.NoError(t, f.users.Save(user))
	return user
}

func (f *publisherFixture) seedSchedule(t *testing.T, userID string, maxPerDay int) {
	t.Helper()
	require.NoError(t, f.schedules.Save(&domain.Schedule{
		UserID:          userID,
		IsActive:        true,
		MaxVideosPerDay: maxPerDay,
	}))
}

func (f *publisherFixture) seedScheduledVideo(t *testing.T, userID, videoID string, scheduledAt time.Time) *domain.Video {
	t.Helper()
	video := &domain.Video{
		UserID:          userID,
		SourceChannelID: "chan-1",
		VideoID:         videoID,
		Title:           "Title " + videoID,
		Description:     "Description",
		Tags:            []string{"tag1", "tag2"},
		Status:          domain.VideoStatusScheduled,
		ScheduledAt:     &scheduledAt,
	}
	require.NoError(t, f.videos.Save(video))
	return video
}

func TestSweepPublishesEarliestDueUpToLimit(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	f.seedSchedule(t, user.ID, 2)

	now := time.Now()
	v1 := f.seedScheduledVideo(t, user.ID, "yt1", now.Add(-3*time.Hour))
	v2 := f.seedScheduledVideo(t, user.ID, "yt2", now.Add(-2*time.Hour))
	v3 := f.seedScheduledVideo(t, user.ID, "yt3", now.Add(-1*time.Hour))

	f.publisher.PublishDueVideos(context.Background())

	for _, id := range []string{v1.ID, v2.ID} {
		video, err := f.videos.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, domain.VideoStatusPosted, video.Status)
		require.NotNil(t, video.PostedAt)
		assert.Equal(t, "UCdest", video.DestinationChannelID)
		assert.Equal(t, "new-video-id", video.DestinationVideoID)
	}

	third, err := f.videos.GetByID(v3.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, third.Status)
	assert.Nil(t, third.PostedAt)

	require.Len(t, f.upload.requests, 2)
	assert.Equal(t, "Title yt1", f.upload.requests[0].Title)
	assert.Equal(t, "Title yt2", f.upload.requests[1].Title)
	assert.Equal(t, "public", f.upload.requests[0].PrivacyStatus)

	count, err := f.videos.CountPostedSince(user.ID, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSweepDownloadFailureMarksFailed(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	f.seedSchedule(t, user.ID, 2)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	f.download.err = domain.ErrDownload
	f.publisher.PublishDueVideos(context.Background())

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
	assert.Empty(t, f.upload.requests)

	count, err := f.videos.CountPostedSince(user.ID, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSweepUploadFailureMarksFailed(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	f.seedSchedule(t, user.ID, 2)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	f.upload.err = domain.ErrUpload
	f.publisher.PublishDueVideos(context.Background())

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusFailed, got.Status)
	assert.NotEmpty(t, got.ErrorMessage)
}

func TestSweepRefreshFailureLeavesStatusUnchanged(t *testing.T) {
	f := newPublisherFixture(t)
	expired := time.Now().Add(-time.Hour)
	user := f.seedUser(t, &expired)
	f.seedSchedule(t, user.ID, 2)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	f.refresher.err = errors.New("invalid_grant")
	f.publisher.PublishDueVideos(context.Background())

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)
	assert.Empty(t, got.ErrorMessage)
	assert.Nil(t, got.ClaimedAt, "claim must be released on credential problems")
	assert.Zero(t, f.download.calls)
	assert.Empty(t, f.upload.requests)
}

func TestSweepExpiredTokenRefreshedAndPersisted(t *testing.T) {
	f := newPublisherFixture(t)
	expired := time.Now().Add(-time.Hour)
	user := f.seedUser(t, &expired)
	f.seedSchedule(t, user.ID, 2)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	f.publisher.PublishDueVideos(context.Background())

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusPosted, got.Status)

	assert.Equal(t, 1, f.refresher.calls)
	require.Len(t, f.upload.requests, 1)
	assert.Equal(t, "refreshed-access", f.upload.requests[0].AccessToken)

	stored, err := f.users.GetByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.TokenExpiry)
	assert.True(t, stored.TokenExpiry.After(time.Now()))
	plain, err := f.vault.Decrypt(stored.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", plain)
}

func TestSweepIsolatesBrokenUser(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)

	broken := f.seedUser(t, &future)
	broken.AccessToken = "not-a-valid-blob"
	require.NoError(t, f.users.Save(broken))
	f.seedSchedule(t, broken.ID, 2)
	brokenVideo := f.seedScheduledVideo(t, broken.ID, "yt-broken", time.Now().Add(-time.Hour))

	healthy := f.seedUser(t, &future)
	f.seedSchedule(t, healthy.ID, 2)
	healthyVideo := f.seedScheduledVideo(t, healthy.ID, "yt-healthy", time.Now().Add(-time.Hour))

	f.publisher.PublishDueVideos(context.Background())

	got, err := f.videos.GetByID(brokenVideo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)

	got, err = f.videos.GetByID(healthyVideo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusPosted, got.Status)
}

func TestPublishVideoRejectsAlreadyPosted(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	postedAt := time.Now().Add(-30 * time.Minute)
	ok, err := f.videos.MarkPosted(video.ID, postedAt, "UCdest", "existing-id")
	require.NoError(t, err)
	require.True(t, ok)

	for i := 0; i < 2; i++ {
		err = f.publisher.PublishVideo(context.Background(), user.ID, video.ID)
		assert.ErrorIs(t, err, domain.ErrAlreadyPosted)
	}

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PostedAt)
	assert.WithinDuration(t, postedAt, *got.PostedAt, time.Second)
	assert.Empty(t, f.upload.requests, "upload must not run again for a posted video")
}

func TestPublishVideoRejectsWhenQuotaExhausted(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	f.seedSchedule(t, user.ID, 1)

	posted := f.seedScheduledVideo(t, user.ID, "yt-posted", time.Now().Add(-2*time.Hour))
	ok, err := f.videos.MarkPosted(posted.ID, time.Now(), "UCdest", "dest-1")
	require.NoError(t, err)
	require.True(t, ok)

	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	err = f.publisher.PublishVideo(context.Background(), user.ID, video.ID)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)
}

func TestPublishVideoRejectsForeignVideo(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	owner := f.seedUser(t, &future)
	video := f.seedScheduledVideo(t, owner.ID, "yt1", time.Now().Add(-time.Hour))

	err := f.publisher.PublishVideo(context.Background(), "someone-else", video.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPublishVideoSkipsWhenClaimHeld(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	claimed, err := f.videos.Claim(video.ID, time.Now(), 15*time.Minute)
	require.NoError(t, err)
	require.True(t, claimed)

	err = f.publisher.PublishVideo(context.Background(), user.ID, video.ID)
	assert.ErrorIs(t, err, domain.ErrPublishInProgress)
	assert.Empty(t, f.upload.requests)

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)
}

// failingMarkPostedRepo simulates a write failure on the final posted record.
type failingMarkPostedRepo struct {
	*memory.VideoRepository
	markPostedErr error
}

func (r *failingMarkPostedRepo) MarkPosted(string, time.Time, string, string) (bool, error) {
	return false, r.markPostedErr
}

func TestPublishReleasesClaimWhenPostedWriteFails(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	videos := &failingMarkPostedRepo{
		VideoRepository: f.videos,
		markPostedErr:   errors.New("disk I/O error"),
	}
	cfg := &config.Config{
		DailyVideoLimit: 2,
		UploadTimeout:   time.Minute,
		ClaimLease:      15 * time.Minute,
	}
	tokens := NewTokenManager(f.vault, f.users, f.refresher)
	publisher := NewPublisher(cfg, videos, f.users, f.schedules, tokens, NewQuotaTracker(videos), f.download, f.upload)

	err := publisher.PublishVideo(context.Background(), user.ID, video.ID)
	require.Error(t, err)

	// The claim must not outlive the attempt, otherwise the video sits
	// locked until the lease lapses
	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ClaimedAt)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)

	claimed, err := f.videos.Claim(video.ID, time.Now(), 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, claimed, "video must be claimable again right away")
}

func TestRetryVideoResetsFailedOnly(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	require.Error(t, f.publisher.RetryVideo(user.ID, video.ID), "non-failed video cannot be retried")

	require.NoError(t, f.videos.MarkFailed(video.ID, "download failed"))
	require.NoError(t, f.publisher.RetryVideo(user.ID, video.ID))

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusPending, got.Status)
	assert.Empty(t, got.ErrorMessage)
}

func TestPublishVideoNotPublishableWithoutDestination(t *testing.T) {
	f := newPublisherFixture(t)
	future := time.Now().Add(time.Hour)
	user := f.seedUser(t, &future)
	user.DestinationChannelID = ""
	require.NoError(t, f.users.Save(user))
	video := f.seedScheduledVideo(t, user.ID, "yt1", time.Now().Add(-time.Hour))

	err := f.publisher.PublishVideo(context.Background(), user.ID, video.ID)
	assert.ErrorIs(t, err, domain.ErrNotPublishable)

	got, err := f.videos.GetByID(video.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VideoStatusScheduled, got.Status)
}
