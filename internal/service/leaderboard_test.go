package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/color"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
)

func TestLeaderboardService_ForChallenge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.signUp(t, "anna")
	b := env.signUp(t, "ben")
	c := env.newChallenge(t, a.User.ID, "Cycling")

	// a:3, b:5, a:1 -> b:5, a:4
	voters := 0
	upvote := func(postID string, n int) {
		for range n {
			voters++
			voter := env.signUp(t, fmt.Sprintf("voter%d", voters))
			_, err := env.posts.Upvote(ctx, postID, voter.User.ID)
			require.NoError(t, err)
		}
	}
	upvote(env.newPost(t, a.User.ID, c.ID, "20km").ID, 3)
	upvote(env.newPost(t, b.User.ID, c.ID, "40km").ID, 5)
	upvote(env.newPost(t, a.User.ID, c.ID, "5km").ID, 1)

	rows, err := env.leaderboard.ForChallenge(ctx, c.ID, a.User.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "ben", rows[0].DisplayName)
	assert.Equal(t, 5, rows[0].Points)
	assert.False(t, rows[0].IsCurrentUser)
	assert.Equal(t, color.ForUser(b.User.ID), rows[0].AvatarColor)

	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "anna", rows[1].DisplayName)
	assert.Equal(t, 4, rows[1].Points)
	assert.True(t, rows[1].IsCurrentUser)
}

func TestLeaderboardService_Empty(t *testing.T) {
	env := newTestEnv(t)
	me := env.signUp(t, "solo")
	c := env.newChallenge(t, me.User.ID, "Quiet")

	rows, err := env.leaderboard.ForChallenge(context.Background(), c.ID, me.User.ID)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = env.leaderboard.ForChallenge(context.Background(), "challenge-missing", me.User.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}
