package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// TryUpvote records voterID's upvote on postID and bumps the post's counter, atomically.
//
// The vote row and the counter change in the same transaction: either both are
// written or neither is. A repeated vote leaves both untouched and reports
// Applied=false with the current count.
func (s *Store) TryUpvote(ctx context.Context, postID, voterID string) (*domain.UpvoteResult, error) {
	result := &domain.UpvoteResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO post_upvotes (post_id, user_id, created_at) VALUES (?, ?, ?)
			ON CONFLICT (post_id, user_id) DO NOTHING`,
			postID, voterID, formatTime(s.now()),
		)
		if isForeignKeyViolation(err) {
			return store.ErrPostNotFound.WithCause(err)
		}
		if err != nil {
			return fmt.Errorf("insert upvote: %w", err)
		}

		inserted, err := rowsAffected(res, "insert upvote")
		if err != nil {
			return err
		}

		if inserted > 0 {
			upd, err := tx.ExecContext(ctx, `UPDATE posts SET upvotes = upvotes + 1 WHERE id = ?`, postID)
			if err != nil {
				return fmt.Errorf("increment upvotes: %w", err)
			}
			n, err := rowsAffected(upd, "increment upvotes")
			if err != nil {
				return err
			}
			if n == 0 {
				return store.ErrPostNotFound
			}
			result.Applied = true
		}

		err = tx.QueryRowContext(ctx, `SELECT upvotes FROM posts WHERE id = ?`, postID).Scan(&result.Upvotes)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("read upvotes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("upvote", "post_id", postID, "voter_id", voterID, "applied", result.Applied, "upvotes", result.Upvotes)
	}
	return result, nil
}

// UpvotedPostIDs returns the IDs of posts in the challenge that userID has upvoted.
func (s *Store) UpvotedPostIDs(ctx context.Context, challengeID, userID string) (map[string]bool, error) {
	out := make(map[string]bool)
	if userID == "" {
		return out, nil
	}

	upvotes, err := s.upvotesByUser(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	for _, u := range upvotes {
		out[u.PostID] = true
	}
	return out, nil
}

// upvotesByUser lists userID's upvotes on posts of the challenge.
func (s *Store) upvotesByUser(ctx context.Context, challengeID, userID string) ([]domain.Upvote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.post_id, u.user_id, u.created_at FROM post_upvotes u
		JOIN posts p ON p.id = u.post_id
		WHERE p.challenge_id = ? AND u.user_id = ?`, challengeID, userID)
	if err != nil {
		return nil, fmt.Errorf("query upvotes: %w", err)
	}
	defer rows.Close()

	var upvotes []domain.Upvote
	for rows.Next() {
		var (
			u         domain.Upvote
			createdAt string
		)
		if err := rows.Scan(&u.PostID, &u.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan upvote: %w", err)
		}
		if u.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse upvote created_at: %w", err)
		}
		upvotes = append(upvotes, u)
	}
	return upvotes, rows.Err()
}
