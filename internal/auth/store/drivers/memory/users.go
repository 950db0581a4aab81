package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fernwood-health/apothecary/internal/auth/domain"
	"github.com/fernwood-health/apothecary/internal/auth/store"
)

// Users is an in-memory Users driver for dev mode and tests.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // normalized email -> id
}

func NewUsers() *Users {
	return &Users{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (u *Users) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	id, ok := u.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u.byID[id], nil
}

func (u *Users) GetUserByID(_ context.Context, id string) (domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	usr, ok := u.byID[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return usr, nil
}

func (u *Users) CreateUser(_ context.Context, usr domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	key := domain.NormalizeEmail(usr.Email)
	if _, exists := u.byEmail[key]; exists {
		return store.ErrAlreadyExists
	}
	if _, exists := u.byID[usr.ID]; exists {
		return store.ErrAlreadyExists
	}

	u.byID[usr.ID] = usr
	u.byEmail[key] = usr.ID
	return nil
}

func (u *Users) UpdatePasswordHash(_ context.Context, userID string, newHash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	usr, ok := u.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	usr.PasswordHash = newHash
	usr.UpdatedAt = time.Now().UTC()
	u.byID[userID] = usr
	return nil
}

// ReplaceUser swaps a stored user wholesale. Test helper for flipping
// flags the store interface does not expose setters for.
func (u *Users) ReplaceUser(_ context.Context, usr domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.byID[usr.ID]; !ok {
		return store.ErrNotFound
	}
	u.byID[usr.ID] = usr
	u.byEmail[domain.NormalizeEmail(usr.Email)] = usr.ID
	return nil
}

func (u *Users) SetEmailVerified(_ context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	usr, ok := u.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	usr.EmailVerified = true
	usr.UpdatedAt = time.Now().UTC()
	u.byID[userID] = usr
	return nil
}
