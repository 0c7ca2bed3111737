package sqlite

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func setupUpvoteFixture(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	mustCreateUser(t, s, "author", "author")
	mustCreateUser(t, s, "voter", "voter")
	mustCreateChallenge(t, s, makeTestChallenge("ch-1", "author", time.Now()))
	mustCreatePost(t, s, "post-1", "ch-1", "author", time.Now())
	return s
}

func TestTryUpvote_Sequential(t *testing.T) {
	s := setupUpvoteFixture(t)
	ctx := context.Background()

	first, err := s.TryUpvote(ctx, "post-1", "voter")
	if err != nil {
		t.Fatalf("first TryUpvote: %v", err)
	}
	if !first.Applied || first.Upvotes != 1 {
		t.Errorf("first: %+v, want applied with 1", first)
	}

	second, err := s.TryUpvote(ctx, "post-1", "voter")
	if err != nil {
		t.Fatalf("second TryUpvote: %v", err)
	}
	if second.Applied || second.Upvotes != 1 {
		t.Errorf("second: %+v, want not applied with 1", second)
	}

	p, err := s.GetPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if p.Upvotes != 1 {
		t.Errorf("counter = %d, want 1", p.Upvotes)
	}
}

func TestTryUpvote_MissingPost(t *testing.T) {
	s := setupUpvoteFixture(t)

	_, err := s.TryUpvote(context.Background(), "missing", "voter")
	assertNotFound(t, err)

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM post_upvotes`).Scan(&n); err != nil || n != 0 {
		t.Errorf("no upvote row should exist, got %d (%v)", n, err)
	}
}

func TestTryUpvote_Concurrent(t *testing.T) {
	s := setupUpvoteFixture(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
		errs    []error
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.TryUpvote(ctx, "post-1", "voter")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.Applied {
				applied++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("TryUpvote errors: %v", errs)
	}
	if applied != 1 {
		t.Errorf("applied %d times, want exactly 1", applied)
	}

	p, err := s.GetPost(ctx, "post-1")
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if p.Upvotes != 1 {
		t.Errorf("counter = %d, want 1", p.Upvotes)
	}
}

func TestTryUpvote_ManyVoters(t *testing.T) {
	s := setupUpvoteFixture(t)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("fan-%d", i)
		mustCreateUser(t, s, id, id)
		res, err := s.TryUpvote(ctx, "post-1", id)
		if err != nil {
			t.Fatalf("TryUpvote(%s): %v", id, err)
		}
		if !res.Applied || res.Upvotes != i+1 {
			t.Errorf("TryUpvote(%s) = %+v, want applied with %d", id, res, i+1)
		}
	}
}

func TestUpvotedPostIDs(t *testing.T) {
	s := setupUpvoteFixture(t)
	ctx := context.Background()
	mustCreatePost(t, s, "post-2", "ch-1", "author", time.Now())

	if _, err := s.TryUpvote(ctx, "post-2", "voter"); err != nil {
		t.Fatalf("TryUpvote: %v", err)
	}

	got, err := s.UpvotedPostIDs(ctx, "ch-1", "voter")
	if err != nil {
		t.Fatalf("UpvotedPostIDs: %v", err)
	}
	if len(got) != 1 || !got["post-2"] {
		t.Errorf("unexpected upvoted set: %v", got)
	}

	anon, err := s.UpvotedPostIDs(ctx, "ch-1", "")
	if err != nil || len(anon) != 0 {
		t.Errorf("anonymous viewer: %v, %v", anon, err)
	}
}

func TestTryUpvote_StampsStoreClock(t *testing.T) {
	s := setupUpvoteFixture(t)
	voted := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	s.now = func() time.Time { return voted }

	if _, err := s.TryUpvote(context.Background(), "post-1", "voter"); err != nil {
		t.Fatalf("TryUpvote: %v", err)
	}

	upvotes, err := s.upvotesByUser(context.Background(), "ch-1", "voter")
	if err != nil {
		t.Fatalf("upvotesByUser: %v", err)
	}
	if len(upvotes) != 1 {
		t.Fatalf("got %d upvotes, want 1", len(upvotes))
	}
	got := upvotes[0]
	if got.PostID != "post-1" || got.UserID != "voter" || !got.CreatedAt.Equal(voted) {
		t.Errorf("upvote = %+v, want post-1/voter at %v", got, voted)
	}
}
