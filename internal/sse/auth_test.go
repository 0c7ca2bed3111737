package sse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

func receiveAuth(t *testing.T, sub *AuthSubscriber) AuthEvent {
	t.Helper()
	select {
	case e := <-sub.EventChan:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for auth event")
		return AuthEvent{}
	}
}

func TestAuthBroadcaster_SubscribeAndPublish(t *testing.T) {
	b := NewAuthBroadcaster(testLogger())
	user := &domain.User{Entity: domain.Entity{ID: "user-1"}, Username: "alice"}

	sub := b.Subscribe("user-1", "session-1")
	other := b.Subscribe("user-2", "session-9")
	assert.Equal(t, 2, b.SubscriberCount())

	b.SignedIn(user)
	e := receiveAuth(t, sub)
	assert.Equal(t, AuthSignedIn, e.Type)
	assert.Equal(t, "alice", e.User.Username)

	user.Username = "alice2"
	b.UserUpdated(user)
	assert.Equal(t, AuthUserUpdated, receiveAuth(t, sub).Type)

	assert.Empty(t, other.EventChan)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(other)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestAuthBroadcaster_SignedOutTargetsSession(t *testing.T) {
	b := NewAuthBroadcaster(testLogger())

	phone := b.Subscribe("user-1", "session-phone")
	laptop := b.Subscribe("user-1", "session-laptop")
	defer b.Unsubscribe(phone)
	defer b.Unsubscribe(laptop)

	b.SignedOut("user-1", "session-phone")
	assert.Equal(t, AuthSignedOut, receiveAuth(t, phone).Type)
	assert.Empty(t, laptop.EventChan)

	// An empty session ID signs out everywhere.
	b.SignedOut("user-1", "")
	e := receiveAuth(t, laptop)
	assert.Equal(t, AuthSignedOut, e.Type)
	assert.Nil(t, e.User)
}

func TestAuthBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewAuthBroadcaster(testLogger())
	require.NotPanics(t, func() {
		b.SignedOut("nobody", "")
	})
}
