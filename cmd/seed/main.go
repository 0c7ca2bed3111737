// Package main seeds a FitChallenge database with demo users, a running
// challenge, progress posts and upvotes.
//
// Usage:
//
//	DATA_PATH=~/fitchallenge go run ./cmd/seed
//	go run ./cmd/seed --data ./tmp --users 8 --password demo-pass-123
package main

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"github.com/fitchallenge/fitchallenge-server/internal/auth"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/search"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
	"github.com/fitchallenge/fitchallenge-server/internal/store/kv"
	"github.com/fitchallenge/fitchallenge-server/internal/store/sqlite"
)

var (
	dataPath = flag.String("data", "", "Data directory (default: $DATA_PATH or ~/fitchallenge)")
	numUsers = flag.Int("users", 6, "Number of demo users to create")
	password = flag.String("password", "fitchallenge-demo", "Password for every demo user")
	verbose  = flag.Bool("v", false, "Log service output")
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	okay    = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	fail    = color.New(color.FgRed, color.Bold)
)

var workouts = []string{
	"Morning run, 5k in the rain.",
	"Leg day. Squats felt heavy but got through all sets.",
	"30 minutes of mobility work before bed.",
	"Rowed 2000m, new personal best!",
	"Rest day walk with the dog, 8000 steps.",
	"HIIT class at lunch. Exhausted.",
	"Swam 40 lengths.",
	"Pull-ups: 3 sets of 6. Progress!",
}

func main() {
	flag.Parse()

	if err := run(context.Background()); err != nil {
		fail.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	base := *dataPath
	if base == "" {
		base = os.Getenv("DATA_PATH")
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home: %w", err)
		}
		base = filepath.Join(home, "fitchallenge")
	}
	if err := os.MkdirAll(base, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	log := logger.Discard()
	if *verbose {
		log = logger.New(logger.Config{Level: slog.LevelDebug, Environment: "development"})
	}

	dbPath := filepath.Join(base, "fitchallenge.db")
	heading.Printf("Seeding %s\n", dbPath)

	st, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	tokens, err := ephemeralTokens()
	if err != nil {
		return err
	}
	tmpKV, err := kv.Open(kv.Options{InMemory: true, Logger: log.Logger})
	if err != nil {
		return fmt.Errorf("open kv: %w", err)
	}
	defer tmpKV.Close()

	// Index seeded challenges so they show up in search right away.
	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(base, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer index.Close()

	noop := store.NewNoopEmitter()
	sessions := service.NewSessionService(st, tokens, log.Logger)
	authSvc := service.NewAuthService(st, tmpKV, tokens, sessions, sse.NewAuthBroadcaster(log.Logger),
		service.NewLogMailer(log.Logger), service.AuthOptions{}, log.Logger)
	challenges := service.NewChallengeService(st, index, noop, log.Logger)
	posts := service.NewPostService(st, noop, log.Logger)

	suffix := time.Now().Format("0102150405")
	userIDs := make([]string, 0, *numUsers)
	for i := range *numUsers {
		username := fmt.Sprintf("athlete%d_%s", i+1, suffix)
		resp, err := authSvc.SignUp(ctx, service.SignUpRequest{
			Username: username,
			Email:    username + "@example.com",
			Password: *password,
		})
		if err != nil {
			warn.Printf("  skip %s: %v\n", username, err)
			continue
		}
		userIDs = append(userIDs, resp.User.ID)
		okay.Printf("  + user %s\n", username)
	}
	if len(userIDs) == 0 {
		return fmt.Errorf("no users created")
	}

	now := time.Now()
	start := now.Add(-72 * time.Hour)
	expires := now.Add(11 * 24 * time.Hour)
	challenge, err := challenges.Create(ctx, userIDs[0], service.CreateChallengeRequest{
		Title:     "Two Week Sweat " + suffix,
		StartAt:   &start,
		ExpiresAt: &expires,
	})
	if err != nil {
		return fmt.Errorf("create challenge: %w", err)
	}
	okay.Printf("  + challenge %q (%s)\n", challenge.Title, challenge.ID)

	for _, uid := range userIDs[1:] {
		if _, err := challenges.Join(ctx, challenge.ID, uid); err != nil {
			return fmt.Errorf("join challenge: %w", err)
		}
	}

	var postIDs []string
	for _, uid := range userIDs {
		for range 1 + rand.IntN(3) {
			post, err := posts.Create(ctx, uid, challenge.ID, service.CreatePostRequest{
				Content: workouts[rand.IntN(len(workouts))],
			})
			if err != nil {
				return fmt.Errorf("create post: %w", err)
			}
			postIDs = append(postIDs, post.ID)
		}
	}
	okay.Printf("  + %d posts\n", len(postIDs))

	votes := 0
	for _, postID := range postIDs {
		for _, voter := range userIDs {
			if rand.IntN(2) == 0 {
				continue
			}
			res, err := posts.Upvote(ctx, postID, voter)
			if err != nil {
				return fmt.Errorf("upvote: %w", err)
			}
			if res.Applied {
				votes++
			}
		}
	}
	okay.Printf("  + %d upvotes\n", votes)

	heading.Println("Done. Sign in with any athlete email and password", color.YellowString(*password))
	return nil
}

// ephemeralTokens builds a token service with a throwaway key. Seeded sessions
// are not meant to be reused by the server.
func ephemeralTokens() (*auth.TokenService, error) {
	key := make([]byte, 32)
	if _, err := crand.Read(key); err != nil {
		return nil, fmt.Errorf("token key: %w", err)
	}
	return auth.NewTokenService(hex.EncodeToString(key), 15*time.Minute, time.Hour)
}
