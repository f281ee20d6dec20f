package domain

import "time"

// User represents an account that owns source channels and a destination channel.
// Token fields hold encrypted blobs; only the token lifecycle manager decrypts them.
type User struct {
	// ID is the unique identifier for the user
	ID string

	// Email identifies the user account
	Email string

	// AccessToken is the encrypted OAuth access token (iv_hex:ciphertext_hex)
	AccessToken string

	// RefreshToken is the encrypted OAuth refresh token
	RefreshToken string

	// TokenExpiry is when the decrypted access token expires; nil means unknown
	TokenExpiry *time.Time

	// DestinationChannelID is the channel videos are re-published to
	DestinationChannelID string

	// DestinationChannelName is the display name of the destination channel
	DestinationChannelName string

	// CreatedAt is the timestamp when the user was created
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the user was last updated
	UpdatedAt time.Time
}

// CanPublish reports whether the user has everything required to publish:
// both tokens and a destination channel.
func (u *User) CanPublish() bool {
	return u.AccessToken != "" && u.RefreshToken != "" && u.DestinationChannelID != ""
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID returns a user by ID
	GetByID(id string) (*User, error)

	// GetByEmail returns a user by email
	GetByEmail(email string) (*User, error)

	// Save creates or updates a user
	Save(user *User) error

	// UpdateTokens replaces the encrypted access token and its expiry
	UpdateTokens(id string, encryptedAccessToken string, expiry *time.Time) error
}
