package usecase

import (
	"time"

	"auto_repost_youtube/internal/domain"
)

// QuotaTracker answers how many videos a user may still publish today.
// "Today" starts at local midnight on the server clock. Counts are recomputed
// on every call; concurrent publishes change them, so caching would lie.
type QuotaTracker struct {
	videos domain.VideoRepository
	now    func() time.Time
}

// NewQuotaTracker creates a new QuotaTracker.
func NewQuotaTracker(videos domain.VideoRepository) *QuotaTracker {
	return &QuotaTracker{
		videos: videos,
		now:    time.Now,
	}
}

// PostedTodayCount returns how many videos the user has posted since local
// midnight.
func (q *QuotaTracker) PostedTodayCount(userID string) (int, error) {
	now := q.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return q.videos.CountPostedSince(userID, midnight)
}

// RemainingSlots returns how many more videos the user may publish today,
// never negative.
func (q *QuotaTracker) RemainingSlots(userID string, dailyLimit int) (int, error) {
	posted, err := q.PostedTodayCount(userID)
	if err != nil {
		return 0, err
	}
	remaining := dailyLimit - posted
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
