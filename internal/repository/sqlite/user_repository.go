package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

const userColumns = `id, email, access_token, refresh_token, token_expiry,
	destination_channel_id, destination_channel_name, created_at, updated_at`

// UserRepository is a SQLite implementation of domain.UserRepository.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository backed by SQLite.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(id string) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// Save inserts or updates a user.
func (r *UserRepository) Save(user *domain.User) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.Exec(`INSERT INTO users
		(id, email, access_token, refresh_token, token_expiry,
			destination_channel_id, destination_channel_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry = excluded.token_expiry,
			destination_channel_id = excluded.destination_channel_id,
			destination_channel_name = excluded.destination_channel_name,
			updated_at = excluded.updated_at`,
		user.ID, user.Email, user.AccessToken, user.RefreshToken,
		nullableTime(user.TokenExpiry), user.DestinationChannelID,
		user.DestinationChannelName, user.CreatedAt.UTC(), user.UpdatedAt.UTC())
	return err
}

// UpdateTokens replaces the encrypted access token and its expiry in a single
// point update.
func (r *UserRepository) UpdateTokens(id string, encryptedAccessToken string, expiry *time.Time) error {
	_, err := r.db.Exec(`UPDATE users SET access_token = ?, token_expiry = ?, updated_at = ? WHERE id = ?`,
		encryptedAccessToken, nullableTime(expiry), time.Now().UTC(), id)
	return err
}

func scanUser(scanner rowScanner) (*domain.User, error) {
	var user domain.User
	var accessToken, refreshToken, destChannelID, destChannelName sql.NullString
	var tokenExpiry sql.NullTime

	err := scanner.Scan(&user.ID, &user.Email, &accessToken, &refreshToken,
		&tokenExpiry, &destChannelID, &destChannelName, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	user.AccessToken = accessToken.String
	user.RefreshToken = refreshToken.String
	user.TokenExpiry = timePtr(tokenExpiry)
	user.DestinationChannelID = destChannelID.String
	user.DestinationChannelName = destChannelName.String
	return &user, nil
}
