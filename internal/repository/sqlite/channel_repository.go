package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

const channelColumns = `id, user_id, channel_id, channel_name, last_fetched_at, created_at, updated_at`

// SourceChannelRepository is a SQLite implementation of domain.SourceChannelRepository.
type SourceChannelRepository struct {
	db *sql.DB
}

// NewSourceChannelRepository creates a new SourceChannelRepository backed by SQLite.
func NewSourceChannelRepository(db *sql.DB) *SourceChannelRepository {
	return &SourceChannelRepository{db: db}
}

// GetAll returns all source channels.
func (r *SourceChannelRepository) GetAll() ([]*domain.SourceChannel, error) {
	rows, err := r.db.Query(`SELECT ` + channelColumns + ` FROM source_channels`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*domain.SourceChannel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// GetByChannelID returns the user's source channel with the given external ID.
func (r *SourceChannelRepository) GetByChannelID(userID, channelID string) (*domain.SourceChannel, error) {
	row := r.db.QueryRow(`SELECT `+channelColumns+` FROM source_channels
		WHERE user_id = ? AND channel_id = ?`, userID, channelID)
	return scanChannel(row)
}

// Save inserts or updates a source channel.
func (r *SourceChannelRepository) Save(channel *domain.SourceChannel) error {
	now := time.Now().UTC()
	if channel.ID == "" {
		channel.ID = uuid.NewString()
		channel.CreatedAt = now
	}
	channel.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO source_channels
		(id, user_id, channel_id, channel_name, last_fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, channel_id) DO UPDATE SET
			channel_name = excluded.channel_name,
			last_fetched_at = excluded.last_fetched_at,
			updated_at = excluded.updated_at`,
		channel.ID, channel.UserID, channel.ChannelID, channel.ChannelName,
		nullableTime(channel.LastFetchedAt), channel.CreatedAt.UTC(), channel.UpdatedAt.UTC())
	return err
}

// UpdateLastFetched records when the channel's uploads were last listed.
func (r *SourceChannelRepository) UpdateLastFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`UPDATE source_channels SET last_fetched_at = ?, updated_at = ? WHERE id = ?`,
		fetchedAt.UTC(), time.Now().UTC(), id)
	return err
}

func scanChannel(scanner rowScanner) (*domain.SourceChannel, error) {
	var channel domain.SourceChannel
	var name sql.NullString
	var lastFetched sql.NullTime

	err := scanner.Scan(&channel.ID, &channel.UserID, &channel.ChannelID,
		&name, &lastFetched, &channel.CreatedAt, &channel.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	channel.ChannelName = name.String
	channel.LastFetchedAt = timePtr(lastFetched)
	return &channel, nil
}
