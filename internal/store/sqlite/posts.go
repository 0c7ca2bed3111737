package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// postColumns must match the scan order in scanPost.
const postColumns = `id, challenge_id, user_id, content, media_url, media_kind, media_blurhash, upvotes, created_at`

func scanPost(scanner interface{ Scan(dest ...any) error }) (domain.Post, error) {
	var (
		p         domain.Post
		mediaURL  sql.NullString
		mediaKind sql.NullString
		blurHash  sql.NullString
		createdAt string
	)
	err := scanner.Scan(&p.ID, &p.ChallengeID, &p.UserID, &p.Content, &mediaURL, &mediaKind, &blurHash, &p.Upvotes, &createdAt)
	if err != nil {
		return p, err
	}

	p.MediaURL = mediaURL.String
	p.MediaKind = domain.MediaKind(mediaKind.String)
	p.MediaBlurHash = blurHash.String
	p.CreatedAt, err = parseTime(createdAt)
	return p, err
}

// CreatePost inserts a post. The upvote counter always starts at zero.
func (s *Store) CreatePost(ctx context.Context, p *domain.Post) error {
	p.Upvotes = 0
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		p.ID,
		p.ChallengeID,
		p.UserID,
		p.Content,
		nullString(p.MediaURL),
		nullString(string(p.MediaKind)),
		nullString(p.MediaBlurHash),
		formatTime(p.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	if isForeignKeyViolation(err) {
		return store.ErrChallengeNotFound.WithCause(err)
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetPost retrieves a post by ID.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// ListPostsByChallenge returns the challenge's posts, newest first.
func (s *Store) ListPostsByChallenge(ctx context.Context, challengeID string) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE challenge_id = ?
		ORDER BY created_at DESC, rowid DESC`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := []domain.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePost removes a post and its upvotes.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := rowsAffected(res, "delete post")
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrPostNotFound
	}
	return nil
}
