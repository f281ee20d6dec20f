package domain

import "time"

// VideoStatus represents the publishing status of a video
type VideoStatus string

const (
	// VideoStatusPending indicates the video was fetched but not yet scheduled
	VideoStatusPending VideoStatus = "pending"

	// VideoStatusScheduled indicates the video is waiting for its scheduled_at time
	VideoStatusScheduled VideoStatus = "scheduled"

	// VideoStatusPosted indicates the video has been re-published to the destination channel
	VideoStatusPosted VideoStatus = "posted"

	// VideoStatusFailed indicates a download or upload attempt failed
	VideoStatusFailed VideoStatus = "failed"
)

// Video represents a source video tracked for re-publishing
type Video struct {
	// ID is the unique identifier for the video row
	ID string

	// UserID is the owning user
	UserID string

	// SourceChannelID references the source channel the video was fetched from
	SourceChannelID string

	// VideoID is the external YouTube video ID on the source channel
	VideoID string

	// Title is the video title
	Title string

	// Description is the video description
	Description string

	// Tags is the video tag list
	Tags []string

	// ThumbnailURL is the URL of the video thumbnail
	ThumbnailURL string

	// DurationSeconds is the video duration in seconds
	DurationSeconds int64

	// ViewCount, LikeCount and CommentCount are source-channel statistics
	ViewCount    int64
	LikeCount    int64
	CommentCount int64

	// Status is the current publishing status
	Status VideoStatus

	// ScheduledAt is when the video becomes due for publishing; nil unless scheduled
	ScheduledAt *time.Time

	// PostedAt is when the video was re-published; nil until posted
	PostedAt *time.Time

	// DestinationChannelID is the channel the video was posted to; set only once posted
	DestinationChannelID string

	// DestinationVideoID is the external ID of the re-published video
	DestinationVideoID string

	// ErrorMessage contains error details if the last publish attempt failed
	ErrorMessage string

	// ClaimedAt marks an in-flight publish attempt; used as a lease so two
	// overlapping sweeps cannot pick up the same video
	ClaimedAt *time.Time

	// CreatedAt is the timestamp when the video was first fetched
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the video was last updated
	UpdatedAt time.Time
}

// Due reports whether the video is eligible for the publish sweep at now.
func (v *Video) Due(now time.Time) bool {
	return v.Status == VideoStatusScheduled && v.ScheduledAt != nil && !v.ScheduledAt.After(now)
}

// VideoRepository defines the interface for video data operations
type VideoRepository interface {
	// GetByID returns a video by its internal ID
	GetByID(id string) (*Video, error)

	// GetByVideoID returns a video by its external source video ID
	GetByVideoID(videoID string) (*Video, error)

	// GetDueForUser returns up to limit videos owned by the user with status
	// scheduled and scheduled_at <= now, ordered by scheduled_at ascending
	GetDueForUser(userID string, now time.Time, limit int) ([]*Video, error)

	// ListByUser returns videos owned by the user, optionally filtered by status
	ListByUser(userID string, status VideoStatus, limit int) ([]*Video, error)

	// CountPostedSince returns how many of the user's videos reached posted
	// status at or after the given timestamp
	CountPostedSince(userID string, since time.Time) (int, error)

	// CountByStatus returns the number of videos per status
	CountByStatus() (map[VideoStatus]int, error)

	// Save creates or updates a video
	Save(video *Video) error

	// Claim leases the video for an in-flight publish attempt. It succeeds
	// only if the video is still pending or scheduled and not claimed within
	// the lease window, and reports whether the claim was won.
	Claim(id string, now time.Time, lease time.Duration) (bool, error)

	// Release clears the publish lease without changing the status
	Release(id string) error

	// MarkPosted records a successful publish in a single update. The write
	// is conditional on the video not already being posted and reports
	// whether it took effect.
	MarkPosted(id string, postedAt time.Time, destinationChannelID, destinationVideoID string) (bool, error)

	// MarkFailed transitions the video to failed with an error message
	MarkFailed(id string, errorMsg string) error

	// ResetToPending returns a failed video to the eligible pool and reports
	// whether the reset took effect
	ResetToPending(id string) (bool, error)
}
