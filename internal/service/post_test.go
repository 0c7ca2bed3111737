package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
)

func TestPostService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.signUp(t, "lifter")
	c := env.newChallenge(t, me.User.ID, "Deadlift")
	env.events.reset()

	t.Run("blank content", func(t *testing.T) {
		_, err := env.posts.Create(ctx, me.User.ID, c.ID, CreatePostRequest{Content: " \n "})
		de := requireCode(t, err, domainerrors.CodeValidation)
		assert.Equal(t, "Post content cannot be empty.", de.Message)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		_, err := env.posts.Create(ctx, me.User.ID, "challenge-missing", CreatePostRequest{Content: "hi"})
		requireCode(t, err, domainerrors.CodeNotFound)
	})

	assert.Empty(t, env.events.types())

	t.Run("with video media", func(t *testing.T) {
		p, err := env.posts.Create(ctx, me.User.ID, c.ID, CreatePostRequest{
			Content:       " 200kg! ",
			MediaURL:      "https://cdn.example.com/progress-media/u/1.MP4",
			MediaBlurHash: "LEHV6nWB2yk8pyo0adR*.7kCMdnj",
		})
		require.NoError(t, err)
		assert.Equal(t, "200kg!", p.Content)
		assert.Equal(t, domain.MediaVideo, p.MediaKind)
		assert.Empty(t, p.MediaBlurHash, "videos carry no placeholder")
		assert.Equal(t, "lifter", p.AuthorName)
		assert.Zero(t, p.Upvotes)
		assert.Equal(t, []sse.EventType{sse.EventPostCreated, sse.EventLeaderboardUpdated}, env.events.types())
	})

	t.Run("with image media", func(t *testing.T) {
		p, err := env.posts.Create(ctx, me.User.ID, c.ID, CreatePostRequest{
			Content:       "form check",
			MediaURL:      "/media/progress-media/u/2.jpg",
			MediaBlurHash: "LEHV6nWB2yk8pyo0adR*.7kCMdnj",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.MediaImage, p.MediaKind)
		assert.Equal(t, "LEHV6nWB2yk8pyo0adR*.7kCMdnj", p.MediaBlurHash)
	})
}

func TestPostService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signUp(t, "alice")
	bob := env.signUp(t, "bob")
	c := env.newChallenge(t, alice.User.ID, "Steps")

	first := env.newPost(t, alice.User.ID, c.ID, "8k steps")
	second := env.newPost(t, bob.User.ID, c.ID, "12k steps")

	_, err := env.posts.Upvote(ctx, first.ID, bob.User.ID)
	require.NoError(t, err)

	posts, err := env.posts.List(ctx, c.ID, bob.User.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, second.ID, posts[0].ID, "newest first")
	assert.Equal(t, "bob", posts[0].AuthorName)
	assert.False(t, posts[0].Upvoted)

	assert.Equal(t, first.ID, posts[1].ID)
	assert.Equal(t, "alice", posts[1].AuthorName)
	assert.True(t, posts[1].Upvoted)
	assert.Equal(t, 1, posts[1].Upvotes)

	anonymous, err := env.posts.List(ctx, c.ID, "")
	require.NoError(t, err)
	assert.False(t, anonymous[1].Upvoted)

	_, err = env.posts.List(ctx, "challenge-missing", bob.User.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestPostService_Upvote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signUp(t, "author")
	voter := env.signUp(t, "voter")
	c := env.newChallenge(t, author.User.ID, "Pullups")
	p := env.newPost(t, author.User.ID, c.ID, "10 reps")
	env.events.reset()

	res, err := env.posts.Upvote(ctx, p.ID, voter.User.ID)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Upvotes)
	assert.Equal(t, []sse.EventType{sse.EventPostUpvoted, sse.EventLeaderboardUpdated}, env.events.types())

	ev, ok := env.events.last(sse.EventLeaderboardUpdated)
	require.True(t, ok)
	board := ev.Data.(sse.LeaderboardEventData)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 1, board.Entries[0].Points)
	assert.Equal(t, "author", board.Entries[0].DisplayName)

	env.events.reset()
	res, err = env.posts.Upvote(ctx, p.ID, voter.User.ID)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 1, res.Upvotes)
	assert.Empty(t, env.events.types(), "a repeated upvote emits nothing")

	_, err = env.posts.Upvote(ctx, "post-missing", voter.User.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestPostService_Upvote_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signUp(t, "author")
	voter := env.signUp(t, "voter")
	c := env.newChallenge(t, author.User.ID, "Burpees")
	p := env.newPost(t, author.User.ID, c.ID, "50 burpees")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range 8 {
		wg.Go(func() {
			res, err := env.posts.Upvote(ctx, p.ID, voter.User.ID)
			if !assert.NoError(t, err) {
				return
			}
			if res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	stored, err := env.store.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Upvotes)
}

func TestPostService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signUp(t, "author")
	other := env.signUp(t, "other")
	c := env.newChallenge(t, author.User.ID, "Stretch")
	p := env.newPost(t, author.User.ID, c.ID, "hamstrings")
	env.events.reset()

	err := env.posts.Delete(ctx, p.ID, other.User.ID)
	requireCode(t, err, domainerrors.CodeForbidden)
	assert.Empty(t, env.events.types())

	require.NoError(t, env.posts.Delete(ctx, p.ID, author.User.ID))
	assert.Equal(t, []sse.EventType{sse.EventPostDeleted, sse.EventLeaderboardUpdated}, env.events.types())

	err = env.posts.Delete(ctx, p.ID, author.User.ID)
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestPostService_Delete_RemovesMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signUp(t, "author")
	c := env.newChallenge(t, author.User.ID, "Sprints")

	p, path := env.newMediaPost(t, author.User.ID, c.ID)
	kept, keptPath := env.newMediaPost(t, author.User.ID, c.ID)
	require.FileExists(t, path)

	require.NoError(t, env.posts.Delete(ctx, p.ID, author.User.ID))
	assert.NoFileExists(t, path)
	assert.FileExists(t, keptPath)

	_, err := env.store.GetPost(ctx, kept.ID)
	require.NoError(t, err)
}
