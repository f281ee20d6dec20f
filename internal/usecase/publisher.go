package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"auto_repost_youtube/config"
	"auto_repost_youtube/internal/domain"
	"auto_repost_youtube/internal/infrastructure/youtube"
	"auto_repost_youtube/internal/logger"
)

// publishPrivacy is the privacy status applied to re-published videos.
const publishPrivacy = "public"

// MediaDownloader fetches a source video to a local file and returns its path.
type MediaDownloader interface {
	Download(ctx context.Context, videoID string) (string, error)
}

// MediaUploader publishes a local video file and returns the new external ID.
type MediaUploader interface {
	Upload(ctx context.Context, req youtube.UploadRequest) (string, error)
}

// Publisher runs the publish workflow: it selects due videos, enforces the
// daily quota, resolves credentials, moves the media and records the outcome.
// The scheduled sweep and the explicit single-video request converge on the
// same per-video procedure.
type Publisher struct {
	videos     domain.VideoRepository
	users      domain.UserRepository
	schedules  domain.ScheduleRepository
	tokens     *TokenManager
	quota      *QuotaTracker
	downloader MediaDownloader
	uploader   MediaUploader

	dailyLimit    int
	uploadTimeout time.Duration
	claimLease    time.Duration

	// sweepMu prevents two sweeps from overlapping when a run overruns the
	// cron interval; the claim lease additionally guards each video row
	sweepMu sync.Mutex
	now     func() time.Time
}

// NewPublisher creates a new Publisher.
func NewPublisher(
	cfg *config.Config,
	videos domain.VideoRepository,
	users domain.UserRepository,
	schedules domain.ScheduleRepository,
	tokens *TokenManager,
	quota *QuotaTracker,
	downloader MediaDownloader,
	uploader MediaUploader,
) *Publisher {
	return &Publisher{
		videos:        videos,
		users:         users,
		schedules:     schedules,
		tokens:        tokens,
		quota:         quota,
		downloader:    downloader,
		uploader:      uploader,
		dailyLimit:    cfg.DailyVideoLimit,
		uploadTimeout: cfg.UploadTimeout,
		claimLease:    cfg.ClaimLease,
		now:           time.Now,
	}
}

// PublishDueVideos runs one sweep over all active schedules. A failure on one
// schedule or one video is logged and never aborts the remaining units. If a
// previous sweep is still running this one is skipped entirely.
func (p *Publisher) PublishDueVideos(ctx context.Context) {
	if !p.sweepMu.TryLock() {
		logger.Warnf("Previous publish sweep still running, skipping this run")
		return
	}
	defer p.sweepMu.Unlock()

	schedules, err := p.schedules.GetAllActive()
	if err != nil {
		logger.Errorf("Failed to load active schedules: %v", err)
		return
	}

	logger.Infof("Publish sweep started: %d active schedule(s)", len(schedules))
	for _, schedule := range schedules {
		if ctx.Err() != nil {
			logger.Warnf("Publish sweep cancelled")
			return
		}
		p.sweepSchedule(ctx, schedule)
	}
	logger.Infof("Publish sweep finished")
}

// sweepSchedule publishes due videos for one user's schedule, bounded by the
// remaining daily slots. The running count is decremented in-process so a
// single sweep can never exceed the limit.
func (p *Publisher) sweepSchedule(ctx context.Context, schedule *domain.Schedule) {
	user, err := p.users.GetByID(schedule.UserID)
	if err != nil {
		logger.Errorf("Sweep: load user %s: %v", schedule.UserID, err)
		return
	}
	if user == nil {
		logger.Warnf("Sweep: schedule %s references missing user %s", schedule.ID, schedule.UserID)
		return
	}

	limit := p.limitFor(schedule)
	remaining, err := p.quota.RemainingSlots(user.ID, limit)
	if err != nil {
		logger.Errorf("Sweep: remaining slots for user %s: %v", user.ID, err)
		return
	}
	if remaining == 0 {
		logger.Infof("Sweep: user %s reached daily limit of %d, skipping", user.ID, limit)
		return
	}

	due, err := p.videos.GetDueForUser(user.ID, p.now(), remaining)
	if err != nil {
		logger.Errorf("Sweep: load due videos for user %s: %v", user.ID, err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, video := range due {
		if remaining == 0 {
			break
		}
		published, err := p.publishOne(ctx, user, video)
		if err != nil {
			logger.Errorf("Sweep: publish video %s for user %s: %v", video.ID, user.ID, err)
			if domain.ConfigProblem(err) {
				// The user's credentials or setup are broken; every
				// remaining video would fail the same way
				break
			}
			continue
		}
		if published {
			remaining--
		}
	}
}

// PublishVideo publishes a single video on explicit user request. Quota and
// the already-posted state are re-checked before any side effect; errors are
// classified with the domain sentinels so the caller can map them.
func (p *Publisher) PublishVideo(ctx context.Context, userID, videoID string) error {
	video, err := p.videos.GetByID(videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	if video == nil || video.UserID != userID {
		return fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}
	if video.Status == domain.VideoStatusPosted {
		return fmt.Errorf("video %s: %w", videoID, domain.ErrAlreadyPosted)
	}

	user, err := p.users.GetByID(userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}
	if user == nil {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	limit := p.dailyLimit
	if schedule, err := p.schedules.GetActiveByUserID(userID); err == nil && schedule != nil {
		limit = p.limitFor(schedule)
	}
	remaining, err := p.quota.RemainingSlots(userID, limit)
	if err != nil {
		return fmt.Errorf("remaining slots for user %s: %w", userID, err)
	}
	if remaining == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrQuotaExceeded)
	}

	published, err := p.publishOne(ctx, user, video)
	if err != nil {
		return err
	}
	if !published {
		return fmt.Errorf("video %s: %w", videoID, domain.ErrPublishInProgress)
	}
	return nil
}

// RetryVideo returns a failed video to the pending pool so the next sweep or
// an explicit publish can pick it up again.
func (p *Publisher) RetryVideo(userID, videoID string) error {
	video, err := p.videos.GetByID(videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	if video == nil || video.UserID != userID {
		return fmt.Errorf("video %s: %w", videoID, domain.ErrNotFound)
	}

	ok, err := p.videos.ResetToPending(videoID)
	if err != nil {
		return fmt.Errorf("reset video %s: %w", videoID, err)
	}
	if !ok {
		return fmt.Errorf("video %s is not in failed status", videoID)
	}
	logger.Infof("Video %s reset to pending for user %s", videoID, userID)
	return nil
}

// publishOne runs the per-video state machine. It reports whether the video
// reached posted. A lost claim is not an error: another run owns the video.
//
// Credential and refresh problems leave the video status untouched; download
// and upload failures write failed. Either way the claim is cleared.
func (p *Publisher) publishOne(ctx context.Context, user *domain.User, video *domain.Video) (bool, error) {
	if !user.CanPublish() {
		return false, fmt.Errorf("user %s: %w", user.ID, domain.ErrNotPublishable)
	}

	claimed, err := p.videos.Claim(video.ID, p.now(), p.claimLease)
	if err != nil {
		return false, fmt.Errorf("claim video %s: %w", video.ID, err)
	}
	if !claimed {
		logger.Infof("Video %s already claimed by another run, skipping", video.ID)
		return false, nil
	}

	accessToken, err := p.tokens.EnsureFreshAccessToken(ctx, user)
	if err != nil {
		// Configuration problem: release the claim and leave the status
		// alone so the video re-enters the pool once the user re-authorizes
		if relErr := p.videos.Release(video.ID); relErr != nil {
			logger.Warnf("Failed to release claim on video %s: %v", video.ID, relErr)
		}
		return false, err
	}

	localPath, err := p.downloader.Download(ctx, video.VideoID)
	if err != nil {
		p.markFailed(video.ID, err)
		return false, err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, p.uploadTimeout)
	defer cancel()

	destVideoID, err := p.uploader.Upload(uploadCtx, youtube.UploadRequest{
		FilePath:      localPath,
		Title:         video.Title,
		Description:   video.Description,
		Tags:          video.Tags,
		AccessToken:   accessToken,
		PrivacyStatus: publishPrivacy,
	})
	if err != nil {
		p.markFailed(video.ID, err)
		return false, err
	}

	posted, err := p.videos.MarkPosted(video.ID, p.now(), user.DestinationChannelID, destVideoID)
	if err != nil {
		// The write failed, not the publish; holding the claim here would
		// lock the video out of the pool until the lease lapses
		if relErr := p.videos.Release(video.ID); relErr != nil {
			logger.Warnf("Failed to release claim on video %s: %v", video.ID, relErr)
		}
		return false, fmt.Errorf("mark video %s posted: %w", video.ID, err)
	}
	if !posted {
		// A concurrent trigger won the conditional write; the upload above
		// was redundant but the stored state stays consistent
		logger.Warnf("Video %s was already posted by a concurrent run", video.ID)
		return false, nil
	}

	logger.Infof("Published video %s for user %s as %s on channel %s",
		video.ID, user.ID, destVideoID, user.DestinationChannelID)
	return true, nil
}

func (p *Publisher) markFailed(videoID string, cause error) {
	if err := p.videos.MarkFailed(videoID, cause.Error()); err != nil {
		logger.Errorf("Failed to mark video %s as failed: %v", videoID, err)
	}
}

func (p *Publisher) limitFor(schedule *domain.Schedule) int {
	if schedule.MaxVideosPerDay > 0 {
		return schedule.MaxVideosPerDay
	}
	return p.dailyLimit
}
