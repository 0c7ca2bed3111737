package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, username, email, password_hash, last_login_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u           domain.User
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)
	if err := scanner.Scan(&u.ID, &createdAt, &updatedAt, &u.Username, &u.Email, &u.PasswordHash, &lastLoginAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	last, err := parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	if last != nil {
		u.LastLoginAt = *last
	}
	return &u, nil
}

// mapUserConflict turns a unique violation into the matching "taken" error.
func mapUserConflict(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username_lower"):
		return store.ErrUsernameTaken
	case strings.Contains(msg, "users.email_lower"):
		return store.ErrEmailTaken
	default:
		return store.ErrAlreadyExists.WithCause(err)
	}
}

// CreateUser inserts a new user.
// Returns store.ErrUsernameTaken or store.ErrEmailTaken on case-insensitive duplicates.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, username, username_lower, email, email_lower, password_hash, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		user.Username,
		strings.ToLower(user.Username),
		user.Email,
		strings.ToLower(user.Email),
		user.PasswordHash,
		zeroTimeNull(user.LastLoginAt),
	)
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "users.id") {
			return store.ErrAlreadyExists.WithCause(err)
		}
		return mapUserConflict(err)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email_lower = ?", strings.ToLower(email))
}

// GetUserByUsername looks a user up by username, ignoring case.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, "username_lower = ?", strings.ToLower(username))
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetUsersByIDs returns the users that exist among ids, keyed by ID.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// UpdateUser writes every mutable field of user.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			updated_at = ?, username = ?, username_lower = ?,
			email = ?, email_lower = ?, password_hash = ?, last_login_at = ?
		WHERE id = ?`,
		formatTime(user.UpdatedAt),
		user.Username,
		strings.ToLower(user.Username),
		user.Email,
		strings.ToLower(user.Email),
		user.PasswordHash,
		zeroTimeNull(user.LastLoginAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return mapUserConflict(err)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := rowsAffected(res, "update user")
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
