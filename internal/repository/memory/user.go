package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"auto_repost_youtube/internal/domain"
)

// UserRepository is an in-memory implementation of domain.UserRepository.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository creates a new in-memory user repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]*domain.User),
	}
}

// GetByID returns a user by ID.
func (r *UserRepository) GetByID(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if user, ok := r.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, nil
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

// Save creates or updates a user.
func (r *UserRepository) Save(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = time.Now()

	copied := *user
	r.users[user.ID] = &copied
	return nil
}

// UpdateTokens replaces the encrypted access token and its expiry.
func (r *UserRepository) UpdateTokens(id string, encryptedAccessToken string, expiry *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, ok := r.users[id]; ok {
		user.AccessToken = encryptedAccessToken
		user.TokenExpiry = expiry
		user.UpdatedAt = time.Now()
	}
	return nil
}
