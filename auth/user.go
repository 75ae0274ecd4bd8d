package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dwella/rent-engine/ledger"
)

// User is a landlord account. Its ID is the owner id of every record the
// landlord creates.
type User struct {
	ID           ledger.OwnerID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore persists accounts. Emails are unique ignoring case; CreateUser
// returns ErrEmailInUse for a taken address and lookups return
// ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u User) (User, error)
	GetUser(ctx context.Context, id ledger.OwnerID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// MEMORY USER STORE
// =============================================================================

type MemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[ledger.OwnerID]User
	byEmail map[string]ledger.OwnerID
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byID:    make(map[ledger.OwnerID]User),
		byEmail: make(map[string]ledger.OwnerID),
	}
}

func (m *MemoryUserStore) CreateUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := NormalizeEmail(u.Email)
	if _, taken := m.byEmail[key]; taken {
		return User{}, ErrEmailInUse
	}
	if u.ID == "" {
		u.ID = ledger.OwnerID(uuid.NewString())
	}
	m.byID[u.ID] = u
	m.byEmail[key] = u.ID
	return u, nil
}

func (m *MemoryUserStore) GetUser(_ context.Context, id ledger.OwnerID) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return m.byID[id], nil
}
