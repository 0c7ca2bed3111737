// Package leaderboard ranks challenge participants by the upvotes their posts received.
package leaderboard

import (
	"slices"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

// Entry is one ranked row. Entries are derived on demand and never stored.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Points      int    `json:"points"`
}

// Compute sums upvotes per author and returns entries ordered by points, highest first.
//
// Authors with equal points keep the order in which they first appear in posts.
// names maps user IDs to display names; authors without a name show their ID.
func Compute(posts []domain.Post, names map[string]string) []Entry {
	entries := make([]Entry, 0)
	index := make(map[string]int)

	for i := range posts {
		p := &posts[i]
		pos, ok := index[p.UserID]
		if !ok {
			pos = len(entries)
			index[p.UserID] = pos
			entries = append(entries, Entry{UserID: p.UserID, DisplayName: displayName(p.UserID, names)})
		}
		entries[pos].Points += p.Upvotes
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Points - a.Points
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func displayName(userID string, names map[string]string) string {
	if name := names[userID]; name != "" {
		return name
	}
	return userID
}
