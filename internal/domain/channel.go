package domain

import "time"

// SourceChannel is a channel polled for new uploads. The publish pipeline
// reads it only to resolve ownership; the fetcher updates LastFetchedAt.
type SourceChannel struct {
	ID            string
	UserID        string
	ChannelID     string
	ChannelName   string
	LastFetchedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SourceChannelRepository defines the interface for source channel data operations
type SourceChannelRepository interface {
	// GetAll returns all source channels
	GetAll() ([]*SourceChannel, error)

	// GetByChannelID returns the user's source channel with the given external ID
	GetByChannelID(userID, channelID string) (*SourceChannel, error)

	// Save creates or updates a source channel
	Save(channel *SourceChannel) error

	// UpdateLastFetched records when the channel's uploads were last listed
	UpdateLastFetched(id string, fetchedAt time.Time) error
}
