package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

// ScheduleRepository is an in-memory implementation of domain.ScheduleRepository.
type ScheduleRepository struct {
	mu        sync.RWMutex
	schedules map[string]*domain.Schedule
}

// NewScheduleRepository creates a new in-memory schedule repository.
func NewScheduleRepository() *ScheduleRepository {
	return &ScheduleRepository{
		schedules: make(map[string]*domain.Schedule),
	}
}

// GetAllActive returns all active schedules.
func (r *ScheduleRepository) GetAllActive() ([]*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*domain.Schedule
	for _, schedule := range r.schedules {
		if schedule.IsActive {
			copied := *schedule
			active = append(active, &copied)
		}
	}
	return active, nil
}

// GetActiveByUserID returns the user's active schedule, or nil if none.
func (r *ScheduleRepository) GetActiveByUserID(userID string) (*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, schedule := range r.schedules {
		if schedule.UserID == userID && schedule.IsActive {
			copied := *schedule
			return &copied, nil
		}
	}
	return nil, nil
}

// Save creates or updates a schedule.
func (r *ScheduleRepository) Save(schedule *domain.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
		schedule.CreatedAt = time.Now()
	}
	schedule.UpdatedAt = time.Now()

	copied := *schedule
	r.schedules[schedule.ID] = &copied
	return nil
}
