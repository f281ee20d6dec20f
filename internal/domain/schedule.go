package domain

import "time"

// Schedule is a per-user publishing policy. The publish sweep reads schedules
// but never mutates them.
type Schedule struct {
	ID              string
	UserID          string
	IsActive        bool
	MaxVideosPerDay int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScheduleRepository defines the interface for schedule data operations
type ScheduleRepository interface {
	// GetAllActive returns all schedules with the active flag set
	GetAllActive() ([]*Schedule, error)

	// GetActiveByUserID returns the user's active schedule, or nil if none
	GetActiveByUserID(userID string) (*Schedule, error)

	// Save creates or updates a schedule
	Save(schedule *Schedule) error
}
