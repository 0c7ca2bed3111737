package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// challengeColumns must match the scan order in scanChallenge.
const challengeColumns = `c.id, c.created_at, c.updated_at, c.title, c.creator_id, c.start_at, c.expires_at`

func scanChallenge(scanner interface{ Scan(dest ...any) error }) (*domain.Challenge, error) {
	var (
		c         domain.Challenge
		createdAt string
		updatedAt string
		startAt   string
		expiresAt sql.NullString
	)
	if err := scanner.Scan(&c.ID, &createdAt, &updatedAt, &c.Title, &c.CreatorID, &startAt, &expiresAt); err != nil {
		return nil, err
	}

	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if c.StartAt, err = parseTime(startAt); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = parseNullableTime(expiresAt); err != nil {
		return nil, err
	}
	c.Participants = []string{}
	return &c, nil
}

// CreateChallenge inserts the challenge and its creator as the first participant.
func (s *Store) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO challenges (id, created_at, updated_at, title, creator_id, start_at, expires_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID,
			formatTime(c.CreatedAt),
			formatTime(c.UpdatedAt),
			c.Title,
			c.CreatorID,
			formatTime(c.StartAt),
			nullTimeString(c.ExpiresAt),
		)
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithCause(err)
		}
		if isForeignKeyViolation(err) {
			return store.ErrUserNotFound.WithCause(err)
		}
		if err != nil {
			return fmt.Errorf("insert challenge: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO challenge_participants (challenge_id, user_id, joined_at) VALUES (?, ?, ?)`,
			c.ID, c.CreatorID, formatTime(c.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert creator participant: %w", err)
		}

		c.Participants = []string{c.CreatorID}
		return nil
	})
}

// GetChallenge retrieves a challenge with its participants in join order.
func (s *Store) GetChallenge(ctx context.Context, id string) (*domain.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges c WHERE c.id = ?`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get challenge: %w", err)
	}

	if err := s.loadParticipants(ctx, []*domain.Challenge{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListChallenges returns every challenge, newest first.
func (s *Store) ListChallenges(ctx context.Context) ([]*domain.Challenge, error) {
	return s.queryChallenges(ctx, `SELECT `+challengeColumns+` FROM challenges c ORDER BY c.created_at DESC, c.rowid DESC`)
}

// ListChallengesByParticipant returns the challenges userID has joined, newest first.
func (s *Store) ListChallengesByParticipant(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	return s.queryChallenges(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges c
		JOIN challenge_participants p ON p.challenge_id = c.id
		WHERE p.user_id = ?
		ORDER BY c.created_at DESC, c.rowid DESC`, userID)
}

func (s *Store) queryChallenges(ctx context.Context, query string, args ...any) ([]*domain.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query challenges: %w", err)
	}
	defer rows.Close()

	out := []*domain.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadParticipants(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadParticipants fills Participants for each challenge in one query.
func (s *Store) loadParticipants(ctx context.Context, challenges []*domain.Challenge) error {
	if len(challenges) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Challenge, len(challenges))
	args := make([]any, 0, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
		args = append(args, c.ID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT challenge_id, user_id FROM challenge_participants
		WHERE challenge_id IN (`+placeholders(len(args))+`)
		ORDER BY rowid`, args...)
	if err != nil {
		return fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var challengeID, userID string
		if err := rows.Scan(&challengeID, &userID); err != nil {
			return fmt.Errorf("scan participant: %w", err)
		}
		c := byID[challengeID]
		c.Participants = append(c.Participants, userID)
	}
	return rows.Err()
}

// AddParticipant appends userID to the challenge's participants.
// Returns false without error when the user had already joined.
func (s *Store) AddParticipant(ctx context.Context, challengeID, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id, joined_at) VALUES (?, ?, ?)
		ON CONFLICT (challenge_id, user_id) DO NOTHING`,
		challengeID, userID, formatTime(s.now()),
	)
	if isForeignKeyViolation(err) {
		return false, store.ErrChallengeNotFound.WithCause(err)
	}
	if err != nil {
		return false, fmt.Errorf("add participant: %w", err)
	}
	n, err := rowsAffected(res, "add participant")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// DeleteChallenge removes a challenge. Participants, posts and upvotes cascade.
func (s *Store) DeleteChallenge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM challenges WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	n, err := rowsAffected(res, "delete challenge")
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrChallengeNotFound
	}
	return nil
}
