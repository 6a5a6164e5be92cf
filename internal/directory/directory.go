// Package directory looks up user profile and presence data the gateway
// needs: display names for reply banners and contact lists for presence.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound is returned when no user matches the id
var ErrUserNotFound = errors.New("user not found")

// Directory is the read/write view of users used by the gateway
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
	Contacts(ctx context.Context, userID string) ([]string, error)
	SetPresence(ctx context.Context, userID string, online bool, at time.Time) error
}

// Postgres implements Directory over the users and contacts tables
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Directory backed by pool
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// DisplayName returns the user's name
func (p *Postgres) DisplayName(ctx context.Context, userID string) (string, error) {
	var name string
	err := p.pool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query display name: %w", err)
	}
	return name, nil
}

// Contacts returns ids of users related to userID in either direction
func (p *Postgres) Contacts(ctx context.Context, userID string) ([]string, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT user_id FROM contacts WHERE contact_id = $1
		UNION
		SELECT contact_id FROM contacts WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan contacts: %w", err)
	}
	return ids, nil
}

// SetPresence records the user's online flag and last-seen time
func (p *Postgres) SetPresence(ctx context.Context, userID string, online bool, at time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE users SET is_online = $1, last_seen = $2 WHERE id = $3
	`, online, at, userID)
	if err != nil {
		return fmt.Errorf("update presence: %w", err)
	}
	return nil
}

// Static is an in-memory Directory for local runs without a database and for tests
type Static struct {
	mu       sync.Mutex
	names    map[string]string
	contacts map[string][]string
	online   map[string]bool
}

// NewStatic creates an in-memory directory from names and contact lists
func NewStatic(names map[string]string, contacts map[string][]string) *Static {
	if names == nil {
		names = map[string]string{}
	}
	if contacts == nil {
		contacts = map[string][]string{}
	}
	return &Static{names: names, contacts: contacts, online: map[string]bool{}}
}

// DisplayName implements Directory
func (s *Static) DisplayName(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, ok := s.names[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return name, nil
}

// Contacts implements Directory
func (s *Static) Contacts(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.contacts[userID]...), nil
}

// SetPresence implements Directory
func (s *Static) SetPresence(_ context.Context, userID string, online bool, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online[userID] = online
	return nil
}

// IsOnline reports the last presence recorded for userID
func (s *Static) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online[userID]
}
