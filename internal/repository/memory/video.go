package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

// VideoRepository is an in-memory implementation of domain.VideoRepository.
type VideoRepository struct {
	mu     sync.RWMutex
	videos map[string]*domain.Video
}

// NewVideoRepository creates a new in-memory video repository.
func NewVideoRepository() *VideoRepository {
	return &VideoRepository{
		videos: make(map[string]*domain.Video),
	}
}

// GetByID returns a video by its internal ID.
func (r *VideoRepository) GetByID(id string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if video, ok := r.videos[id]; ok {
		copied := *video
		return &copied, nil
	}
	return nil, nil
}

// GetByVideoID returns a video by its external source video ID.
func (r *VideoRepository) GetByVideoID(videoID string) (*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, video := range r.videos {
		if video.VideoID == videoID {
			copied := *video
			return &copied, nil
		}
	}
	return nil, nil
}

// GetDueForUser returns due videos for a user, earliest scheduled first.
func (r *VideoRepository) GetDueForUser(userID string, now time.Time, limit int) ([]*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*domain.Video
	for _, video := range r.videos {
		if video.UserID == userID && video.Due(now) {
			copied := *video
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledAt.Before(*due[j].ScheduledAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// ListByUser returns a user's videos, optionally filtered by status.
func (r *VideoRepository) ListByUser(userID string, status domain.VideoStatus, limit int) ([]*domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*domain.Video
	for _, video := range r.videos {
		if video.UserID != userID {
			continue
		}
		if status != "" && video.Status != status {
			continue
		}
		copied := *video
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountPostedSince returns how many videos the user posted at or after since.
func (r *VideoRepository) CountPostedSince(userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, video := range r.videos {
		if video.UserID == userID && video.Status == domain.VideoStatusPosted &&
			video.PostedAt != nil && !video.PostedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// CountByStatus returns the number of videos per status.
func (r *VideoRepository) CountByStatus() (map[domain.VideoStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.VideoStatus]int)
	for _, video := range r.videos {
		counts[video.Status]++
	}
	return counts, nil
}

// Save creates or updates a video.
func (r *VideoRepository) Save(video *domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if video.ID == "" {
		video.ID = uuid.NewString()
		video.CreatedAt = time.Now()
	}
	if video.Status == "" {
		video.Status = domain.VideoStatusPending
	}
	video.UpdatedAt = time.Now()

	copied := *video
	r.videos[video.ID] = &copied
	return nil
}

// Claim leases the video for publishing if it is still eligible.
func (r *VideoRepository) Claim(id string, now time.Time, lease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok {
		return false, nil
	}
	if video.Status != domain.VideoStatusPending && video.Status != domain.VideoStatusScheduled {
		return false, nil
	}
	if video.ClaimedAt != nil && video.ClaimedAt.After(now.Add(-lease)) {
		return false, nil
	}

	claimed := now
	video.ClaimedAt = &claimed
	video.UpdatedAt = now
	return true, nil
}

// Release clears the publish lease.
func (r *VideoRepository) Release(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if video, ok := r.videos[id]; ok {
		video.ClaimedAt = nil
		video.UpdatedAt = time.Now()
	}
	return nil
}

// MarkPosted records a successful publish unless the video is already posted.
func (r *VideoRepository) MarkPosted(id string, postedAt time.Time, destinationChannelID, destinationVideoID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok || video.Status == domain.VideoStatusPosted {
		return false, nil
	}

	posted := postedAt
	video.Status = domain.VideoStatusPosted
	video.PostedAt = &posted
	video.DestinationChannelID = destinationChannelID
	video.DestinationVideoID = destinationVideoID
	video.ErrorMessage = ""
	video.ClaimedAt = nil
	video.UpdatedAt = time.Now()
	return true, nil
}

// MarkFailed transitions the video to failed.
func (r *VideoRepository) MarkFailed(id string, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if video, ok := r.videos[id]; ok {
		video.Status = domain.VideoStatusFailed
		video.ErrorMessage = errorMsg
		video.ClaimedAt = nil
		video.UpdatedAt = time.Now()
	}
	return nil
}

// ResetToPending returns a failed video to the eligible pool.
func (r *VideoRepository) ResetToPending(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	video, ok := r.videos[id]
	if !ok || video.Status != domain.VideoStatusFailed {
		return false, nil
	}
	video.Status = domain.VideoStatusPending
	video.ErrorMessage = ""
	video.UpdatedAt = time.Now()
	return true, nil
}
