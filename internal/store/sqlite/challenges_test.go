package sqlite

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

func makeTestChallenge(id, creatorID string, created time.Time) *domain.Challenge {
	exp := created.Add(30 * 24 * time.Hour)
	return &domain.Challenge{
		Entity:    domain.Entity{ID: id, CreatedAt: created, UpdatedAt: created},
		Title:     "Challenge " + id,
		CreatorID: creatorID,
		StartAt:   created,
		ExpiresAt: &exp,
	}
}

func mustCreateChallenge(t *testing.T, s *Store, c *domain.Challenge) {
	t.Helper()
	if err := s.CreateChallenge(context.Background(), c); err != nil {
		t.Fatalf("CreateChallenge(%s): %v", c.ID, err)
	}
}

func TestCreateAndGetChallenge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "alice")

	c := makeTestChallenge("ch-1", "user-1", time.Now())
	mustCreateChallenge(t, s, c)
	if !slices.Equal(c.Participants, []string{"user-1"}) {
		t.Errorf("creator should be first participant, got %v", c.Participants)
	}

	got, err := s.GetChallenge(ctx, "ch-1")
	if err != nil {
		t.Fatalf("GetChallenge: %v", err)
	}
	if got.Title != c.Title || got.CreatorID != "user-1" {
		t.Errorf("unexpected challenge: %+v", got)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(*c.ExpiresAt) {
		t.Errorf("ExpiresAt: got %v, want %v", got.ExpiresAt, c.ExpiresAt)
	}
	if !slices.Equal(got.Participants, []string{"user-1"}) {
		t.Errorf("Participants: %v", got.Participants)
	}

	_, err = s.GetChallenge(ctx, "missing")
	assertNotFound(t, err)
}

func TestChallenge_OpenEnded(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "user-1", "alice")

	c := makeTestChallenge("ch-1", "user-1", time.Now())
	c.ExpiresAt = nil
	mustCreateChallenge(t, s, c)

	got, err := s.GetChallenge(context.Background(), "ch-1")
	if err != nil {
		t.Fatalf("GetChallenge: %v", err)
	}
	if got.ExpiresAt != nil {
		t.Errorf("expected nil ExpiresAt, got %v", got.ExpiresAt)
	}
}

func TestAddParticipant_OrderedAndIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "alice")
	mustCreateUser(t, s, "user-2", "bob")
	mustCreateUser(t, s, "user-3", "carol")
	mustCreateChallenge(t, s, makeTestChallenge("ch-1", "user-1", time.Now()))

	for _, tc := range []struct {
		user string
		want bool
	}{
		{"user-3", true},
		{"user-2", true},
		{"user-3", false},
		{"user-1", false},
	} {
		added, err := s.AddParticipant(ctx, "ch-1", tc.user)
		if err != nil {
			t.Fatalf("AddParticipant(%s): %v", tc.user, err)
		}
		if added != tc.want {
			t.Errorf("AddParticipant(%s) = %v, want %v", tc.user, added, tc.want)
		}
	}

	got, err := s.GetChallenge(ctx, "ch-1")
	if err != nil {
		t.Fatalf("GetChallenge: %v", err)
	}
	if want := []string{"user-1", "user-3", "user-2"}; !slices.Equal(got.Participants, want) {
		t.Errorf("Participants = %v, want %v", got.Participants, want)
	}

	_, err = s.AddParticipant(ctx, "missing", "user-2")
	assertNotFound(t, err)
}

func TestListChallenges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "alice")
	mustCreateUser(t, s, "user-2", "bob")

	base := time.Now().Add(-time.Hour)
	mustCreateChallenge(t, s, makeTestChallenge("ch-old", "user-1", base))
	mustCreateChallenge(t, s, makeTestChallenge("ch-new", "user-2", base.Add(time.Minute)))
	if _, err := s.AddParticipant(ctx, "ch-new", "user-1"); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	all, err := s.ListChallenges(ctx)
	if err != nil {
		t.Fatalf("ListChallenges: %v", err)
	}
	if len(all) != 2 || all[0].ID != "ch-new" || all[1].ID != "ch-old" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}
	if !slices.Equal(all[0].Participants, []string{"user-2", "user-1"}) {
		t.Errorf("participants of ch-new: %v", all[0].Participants)
	}

	mine, err := s.ListChallengesByParticipant(ctx, "user-2")
	if err != nil {
		t.Fatalf("ListChallengesByParticipant: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "ch-new" {
		t.Errorf("user-2 challenges: %v", ids(mine))
	}

	none, err := s.ListChallengesByParticipant(ctx, "nobody")
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v, %v", none, err)
	}
}

func TestDeleteChallenge_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "alice")
	mustCreateUser(t, s, "user-2", "bob")
	mustCreateChallenge(t, s, makeTestChallenge("ch-1", "user-1", time.Now()))
	p := mustCreatePost(t, s, "post-1", "ch-1", "user-1", time.Now())
	if _, err := s.TryUpvote(ctx, p.ID, "user-2"); err != nil {
		t.Fatalf("TryUpvote: %v", err)
	}

	if err := s.DeleteChallenge(ctx, "ch-1"); err != nil {
		t.Fatalf("DeleteChallenge: %v", err)
	}

	_, err := s.GetPost(ctx, "post-1")
	assertNotFound(t, err)

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM post_upvotes`).Scan(&n); err != nil || n != 0 {
		t.Errorf("upvotes left behind: %d (%v)", n, err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM challenge_participants`).Scan(&n); err != nil || n != 0 {
		t.Errorf("participants left behind: %d (%v)", n, err)
	}

	assertNotFound(t, s.DeleteChallenge(ctx, "ch-1"))
}

func ids(cs []*domain.Challenge) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
