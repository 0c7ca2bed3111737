package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMediaKindFor(t *testing.T) {
	tests := []struct {
		name string
		want MediaKind
	}{
		{"", MediaNone},
		{"progress-media/u1/1700000000000.mp4", MediaVideo},
		{"clip.WEBM", MediaVideo},
		{"https://cdn.example.com/a/b.ogg", MediaVideo},
		{"photo.jpg", MediaImage},
		{"photo.png", MediaImage},
		{"mp4.jpg", MediaImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MediaKindFor(tt.name))
		})
	}
}

func TestUser_Name(t *testing.T) {
	u := &User{Entity: Entity{ID: "user-1"}}
	assert.Equal(t, "user-1", u.Name())

	u.Email = "a@example.com"
	assert.Equal(t, "a@example.com", u.Name())

	u.Username = "alice"
	assert.Equal(t, "alice", u.Name())
}

func TestChallenge_Membership(t *testing.T) {
	c := &Challenge{CreatorID: "u1", Participants: []string{"u1", "u2"}}

	assert.True(t, c.IsCreator("u1"))
	assert.False(t, c.IsCreator("u2"))
	assert.True(t, c.HasParticipant("u2"))
	assert.False(t, c.HasParticipant("u3"))
}

func TestSession_IsExpired(t *testing.T) {
	s := &Session{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, s.IsExpired())

	s.ExpiresAt = time.Now().Add(time.Hour)
	assert.False(t, s.IsExpired())
}

func TestEntity_InitTimestamps(t *testing.T) {
	var e Entity
	e.InitTimestamps()
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)

	time.Sleep(time.Millisecond)
	e.Touch()
	assert.True(t, e.UpdatedAt.After(e.CreatedAt))
}
