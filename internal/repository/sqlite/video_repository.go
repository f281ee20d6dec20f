package sqlite

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

const videoColumns = `id, user_id, source_channel_id, video_id, title, description, tags,
	thumbnail_url, duration_seconds, view_count, like_count, comment_count,
	status, scheduled_at, posted_at, destination_channel_id, destination_video_id,
	error_message, claimed_at, created_at, updated_at`

// VideoRepository is a SQLite implementation of domain.VideoRepository.
type VideoRepository struct {
	db *sql.DB
}

// NewVideoRepository creates a new VideoRepository backed by SQLite.
func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// GetByID returns a video by its internal ID.
func (r *VideoRepository) GetByID(id string) (*domain.Video, error) {
	row := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	return scanVideo(row)
}

// GetByVideoID returns a video by its external source video ID.
func (r *VideoRepository) GetByVideoID(videoID string) (*domain.Video, error) {
	row := r.db.QueryRow(`SELECT `+videoColumns+` FROM videos WHERE video_id = ?`, videoID)
	return scanVideo(row)
}

// GetDueForUser returns due videos for a user, earliest scheduled first.
func (r *VideoRepository) GetDueForUser(userID string, now time.Time, limit int) ([]*domain.Video, error) {
	rows, err := r.db.Query(`SELECT `+videoColumns+` FROM videos
		WHERE user_id = ? AND status = ? AND scheduled_at <= ?
		ORDER BY scheduled_at ASC LIMIT ?`,
		userID, domain.VideoStatusScheduled, now.UTC(), limit)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

// ListByUser returns a user's videos, optionally filtered by status, newest first.
func (r *VideoRepository) ListByUser(userID string, status domain.VideoStatus, limit int) ([]*domain.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return collectVideos(rows)
}

// CountPostedSince returns how many videos the user posted at or after since.
func (r *VideoRepository) CountPostedSince(userID string, since time.Time) (int, error) {
	row := r.db.QueryRow(`SELECT COUNT(*) FROM videos
		WHERE user_id = ? AND status = ? AND posted_at >= ?`,
		userID, domain.VideoStatusPosted, since.UTC())
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns the number of videos per status.
func (r *VideoRepository) CountByStatus() (map[domain.VideoStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM videos GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.VideoStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.VideoStatus(status)] = count
	}
	return counts, rows.Err()
}

// Save inserts or updates a video.
func (r *VideoRepository) Save(video *domain.Video) error {
	now := time.Now().UTC()
	if video.ID == "" {
		video.ID = uuid.NewString()
		video.CreatedAt = now
	}
	if video.Status == "" {
		video.Status = domain.VideoStatusPending
	}
	video.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO videos
		(id, user_id, source_channel_id, video_id, title, description, tags,
			thumbnail_url, duration_seconds, view_count, like_count, comment_count,
			status, scheduled_at, posted_at, destination_channel_id, destination_video_id,
			error_message, claimed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			source_channel_id = excluded.source_channel_id,
			video_id = excluded.video_id,
			title = excluded.title,
			description = excluded.description,
			tags = excluded.tags,
			thumbnail_url = excluded.thumbnail_url,
			duration_seconds = excluded.duration_seconds,
			view_count = excluded.view_count,
			like_count = excluded.like_count,
			comment_count = excluded.comment_count,
			status = excluded.status,
			scheduled_at = excluded.scheduled_at,
			posted_at = excluded.posted_at,
			destination_channel_id = excluded.destination_channel_id,
			destination_video_id = excluded.destination_video_id,
			error_message = excluded.error_message,
			claimed_at = excluded.claimed_at,
			updated_at = excluded.updated_at`,
		video.ID, video.UserID, video.SourceChannelID, video.VideoID, video.Title,
		video.Description, joinTags(video.Tags), video.ThumbnailURL, video.DurationSeconds,
		video.ViewCount, video.LikeCount, video.CommentCount, string(video.Status),
		nullableTime(video.ScheduledAt), nullableTime(video.PostedAt),
		video.DestinationChannelID, video.DestinationVideoID, video.ErrorMessage,
		nullableTime(video.ClaimedAt), video.CreatedAt.UTC(), video.UpdatedAt.UTC())
	return err
}

// Claim leases the video for publishing. The conditional update only wins if
// the row is still eligible and no live lease exists, which is what stops an
// overlapping sweep or a concurrent manual publish from picking it up twice.
func (r *VideoRepository) Claim(id string, now time.Time, lease time.Duration) (bool, error) {
	res, err := r.db.Exec(`UPDATE videos SET claimed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?) AND (claimed_at IS NULL OR claimed_at < ?)`,
		now.UTC(), now.UTC(), id,
		domain.VideoStatusPending, domain.VideoStatusScheduled,
		now.Add(-lease).UTC())
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Release clears the publish lease.
func (r *VideoRepository) Release(id string) error {
	_, err := r.db.Exec(`UPDATE videos SET claimed_at = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}

// MarkPosted records a successful publish; conditional on the video not
// already being posted so a racing duplicate write is a no-op.
func (r *VideoRepository) MarkPosted(id string, postedAt time.Time, destinationChannelID, destinationVideoID string) (bool, error) {
	res, err := r.db.Exec(`UPDATE videos SET status = ?, posted_at = ?,
		destination_channel_id = ?, destination_video_id = ?,
		error_message = '', claimed_at = NULL, updated_at = ?
		WHERE id = ? AND status != ?`,
		domain.VideoStatusPosted, postedAt.UTC(), destinationChannelID, destinationVideoID,
		time.Now().UTC(), id, domain.VideoStatusPosted)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// MarkFailed transitions the video to failed and records the error.
func (r *VideoRepository) MarkFailed(id string, errorMsg string) error {
	_, err := r.db.Exec(`UPDATE videos SET status = ?, error_message = ?, claimed_at = NULL, updated_at = ? WHERE id = ?`,
		domain.VideoStatusFailed, errorMsg, time.Now().UTC(), id)
	return err
}

// ResetToPending returns a failed video to the eligible pool.
func (r *VideoRepository) ResetToPending(id string) (bool, error) {
	res, err := r.db.Exec(`UPDATE videos SET status = ?, error_message = '', updated_at = ? WHERE id = ? AND status = ?`,
		domain.VideoStatusPending, time.Now().UTC(), id, domain.VideoStatusFailed)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(scanner rowScanner) (*domain.Video, error) {
	var video domain.Video
	var tags, sourceChannelID, destChannelID, destVideoID, errorMsg, thumbnail sql.NullString
	var scheduledAt, postedAt, claimedAt sql.NullTime
	var status string

	err := scanner.Scan(&video.ID, &video.UserID, &sourceChannelID, &video.VideoID,
		&video.Title, &video.Description, &tags, &thumbnail, &video.DurationSeconds,
		&video.ViewCount, &video.LikeCount, &video.CommentCount, &status,
		&scheduledAt, &postedAt, &destChannelID, &destVideoID, &errorMsg, &claimedAt,
		&video.CreatedAt, &video.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	video.SourceChannelID = sourceChannelID.String
	video.Tags = splitTags(tags.String)
	video.ThumbnailURL = thumbnail.String
	video.Status = domain.VideoStatus(status)
	video.ScheduledAt = timePtr(scheduledAt)
	video.PostedAt = timePtr(postedAt)
	video.DestinationChannelID = destChannelID.String
	video.DestinationVideoID = destVideoID.String
	video.ErrorMessage = errorMsg.String
	video.ClaimedAt = timePtr(claimedAt)
	return &video, nil
}

func collectVideos(rows *sql.Rows) ([]*domain.Video, error) {
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func nullableTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	value := t.Time
	return &value
}
