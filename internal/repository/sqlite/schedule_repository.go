package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

// ScheduleRepository is a SQLite implementation of domain.ScheduleRepository.
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository backed by SQLite.
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// GetAllActive returns all active schedules.
func (r *ScheduleRepository) GetAllActive() ([]*domain.Schedule, error) {
	rows, err := r.db.Query(`SELECT id, user_id, is_active, max_videos_per_day, created_at, updated_at
		FROM schedules WHERE is_active = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*domain.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}

// GetActiveByUserID returns the user's active schedule, or nil if none.
func (r *ScheduleRepository) GetActiveByUserID(userID string) (*domain.Schedule, error) {
	row := r.db.QueryRow(`SELECT id, user_id, is_active, max_videos_per_day, created_at, updated_at
		FROM schedules WHERE user_id = ? AND is_active = 1`, userID)
	return scanSchedule(row)
}

// Save inserts or updates a schedule.
func (r *ScheduleRepository) Save(schedule *domain.Schedule) error {
	now := time.Now().UTC()
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO schedules
		(id, user_id, is_active, max_videos_per_day, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			is_active = excluded.is_active,
			max_videos_per_day = excluded.max_videos_per_day,
			updated_at = excluded.updated_at`,
		schedule.ID, schedule.UserID, boolToInt(schedule.IsActive),
		schedule.MaxVideosPerDay, schedule.CreatedAt.UTC(), schedule.UpdatedAt.UTC())
	return err
}

func scanSchedule(scanner rowScanner) (*domain.Schedule, error) {
	var schedule domain.Schedule
	var active int

	err := scanner.Scan(&schedule.ID, &schedule.UserID, &active,
		&schedule.MaxVideosPerDay, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	schedule.IsActive = active != 0
	return &schedule, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
