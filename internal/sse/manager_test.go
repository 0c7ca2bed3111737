package sse

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case e := <-c.EventChan:
		t.Fatalf("unexpected event %s", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_ConnectDisconnect(t *testing.T) {
	m := NewManager(testLogger())

	a := m.Connect("user-1", "")
	b := m.Connect("user-2", "challenge-1")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, m.ClientCount())

	ids := map[string]bool{}
	for c := range m.Clients() {
		ids[c.ID] = true
	}
	assert.True(t, ids[a.ID])
	assert.True(t, ids[b.ID])

	m.Disconnect(a.ID)
	m.Disconnect(a.ID)
	assert.Equal(t, 1, m.ClientCount())

	_, open := <-a.Done
	assert.False(t, open)
}

func TestManager_ChallengeFiltering(t *testing.T) {
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	all := m.Connect("user-1", "")
	one := m.Connect("user-2", "challenge-1")
	other := m.Connect("user-3", "challenge-2")

	m.Emit(NewPostUpvotedEvent("post-1", "challenge-1", "user-9", 4))

	e := receive(t, all)
	assert.Equal(t, EventPostUpvoted, e.Type)
	e = receive(t, one)
	data, ok := e.Data.(PostUpvotedEventData)
	require.True(t, ok)
	assert.Equal(t, 4, data.Upvotes)
	assertNothing(t, other)
}

func TestManager_UserFiltering(t *testing.T) {
	m := NewManager(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	mine := m.Connect("user-1", "")
	theirs := m.Connect("user-2", "")

	m.EmitToUser("user-1", NewChallengeJoinedEvent("challenge-1", "user-1", 2))

	assert.Equal(t, EventChallengeJoined, receive(t, mine).Type)
	assertNothing(t, theirs)
}

func TestManager_IgnoresForeignTypes(t *testing.T) {
	m := NewManager(testLogger())
	m.Emit("not an event")
	assert.Empty(t, m.events)
}

func TestManager_ShutdownDrainsAndCloses(t *testing.T) {
	m := NewManager(testLogger())
	c := m.Connect("", "")

	m.Emit(NewChallengeCreatedEvent(&domain.Challenge{Entity: domain.Entity{ID: "challenge-1"}, Title: "Plank"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	require.NoError(t, m.Shutdown(ctx))

	e, ok := <-c.EventChan
	require.True(t, ok)
	assert.Equal(t, EventChallengeCreated, e.Type)

	_, ok = <-c.EventChan
	assert.False(t, ok)
	assert.Equal(t, 0, m.ClientCount())

	// Emitting after shutdown is a silent no-op.
	m.Emit(NewHeartbeatEvent())
}

func TestEventConstructors_SetChallengeScope(t *testing.T) {
	post := &domain.Post{ID: "post-1", ChallengeID: "challenge-7", UserID: "user-1"}

	tests := []struct {
		event Event
		typ   EventType
	}{
		{NewChallengeJoinedEvent("challenge-7", "user-1", 3), EventChallengeJoined},
		{NewChallengeDeletedEvent("challenge-7"), EventChallengeDeleted},
		{NewPostCreatedEvent(post, "alice"), EventPostCreated},
		{NewPostDeletedEvent("post-1", "challenge-7"), EventPostDeleted},
		{NewPostUpvotedEvent("post-1", "challenge-7", "user-2", 1), EventPostUpvoted},
		{NewLeaderboardUpdatedEvent("challenge-7", nil), EventLeaderboardUpdated},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.event.Type)
			assert.Equal(t, "challenge-7", tt.event.ChallengeID)
			assert.False(t, tt.event.Timestamp.IsZero())
		})
	}

	hb := NewHeartbeatEvent()
	assert.Equal(t, EventHeartbeat, hb.Type)
	assert.Empty(t, hb.ChallengeID)
}
