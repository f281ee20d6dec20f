package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

// SourceChannelRepository is an in-memory implementation of domain.SourceChannelRepository.
type SourceChannelRepository struct {
	mu       sync.RWMutex
	channels map[string]*domain.SourceChannel
}

// NewSourceChannelRepository creates a new in-memory source channel repository.
func NewSourceChannelRepository() *SourceChannelRepository {
	return &SourceChannelRepository{
		channels: make(map[string]*domain.SourceChannel),
	}
}

// GetAll returns all source channels.
func (r *SourceChannelRepository) GetAll() ([]*domain.SourceChannel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]*domain.SourceChannel, 0, len(r.channels))
	for _, channel := range r.channels {
		copied := *channel
		channels = append(channels, &copied)
	}
	return channels, nil
}

// GetByChannelID returns the user's source channel with the given external ID.
func (r *SourceChannelRepository) GetByChannelID(userID, channelID string) (*domain.SourceChannel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, channel := range r.channels {
		if channel.UserID == userID && channel.ChannelID == channelID {
			copied := *channel
			return &copied, nil
		}
	}
	return nil, nil
}

// Save creates or updates a source channel.
func (r *SourceChannelRepository) Save(channel *domain.SourceChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel.ID == "" {
		channel.ID = uuid.NewString()
		channel.CreatedAt = time.Now()
	}
	channel.UpdatedAt = time.Now()

	copied := *channel
	r.channels[channel.ID] = &copied
	return nil
}

// UpdateLastFetched records when the channel's uploads were last listed.
func (r *SourceChannelRepository) UpdateLastFetched(id string, fetchedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if channel, ok := r.channels[id]; ok {
		fetched := fetchedAt
		channel.LastFetchedAt = &fetched
		channel.UpdatedAt = time.Now()
	}
	return nil
}
