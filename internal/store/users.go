package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newSecretKey returns a short opaque key that doubles as the user's only
// credential: whoever holds it owns the journal behind it.
func newSecretKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func (s *Store) CreateUser() (*User, error) {
	key := newSecretKey()
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO users (secret_key, created_at) VALUES (?, ?)`,
		key, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetUser(id)
}

func (s *Store) GetUser(id int64) (*User, error) {
	u := &User{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, secret_key, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.SecretKey, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// GetUserBySecret returns nil (no error) when the secret matches no user.
func (s *Store) GetUserBySecret(secret string) (*User, error) {
	u := &User{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, secret_key, created_at FROM users WHERE secret_key = ?`, secret,
	).Scan(&u.ID, &u.SecretKey, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by secret: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

func (s *Store) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id, secret_key, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.SecretKey, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		users = append(users, u)
	}
	return users, rows.Err()
}

// EnsureLocalUser returns the first user, creating one if the database is
// empty. The TUI always journals as this user; additional users exist for
// the HTTP API.
func (s *Store) EnsureLocalUser() (*User, error) {
	u := &User{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, secret_key, created_at FROM users ORDER BY id LIMIT 1`,
	).Scan(&u.ID, &u.SecretKey, &createdAt)
	if err == sql.ErrNoRows {
		return s.CreateUser()
	}
	if err != nil {
		return nil, fmt.Errorf("ensure local user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}
