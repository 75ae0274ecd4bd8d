package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dwella/rent-engine/auth"
	"github.com/dwella/rent-engine/ledger"
)

// =============================================================================
// USER STORE (auth.UserStore interface)
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, u auth.User) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = ledger.OwnerID(uuid.NewString())
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.Now()
	}
	u.Email = auth.NormalizeEmail(u.Email)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		if isUniqueConstraintError(err) {
			return auth.User{}, auth.ErrEmailInUse
		}
		return auth.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id ledger.OwnerID) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryUser(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`,
		auth.NormalizeEmail(email))
}

func (s *Store) queryUser(ctx context.Context, query string, args ...any) (auth.User, error) {
	var (
		u         auth.User
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timestampLayout, createdAt)
	return u, nil
}

var _ auth.UserStore = (*Store)(nil)
