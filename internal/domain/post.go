package domain

import (
	"regexp"
	"time"
)

// MediaKind describes the attachment on a progress post.
type MediaKind string

const (
	MediaNone  MediaKind = ""
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var videoExt = regexp.MustCompile(`(?i)\.(mp4|webm|ogg)$`)

// MediaKindFor classifies a media URL or file name by its extension.
func MediaKindFor(name string) MediaKind {
	if name == "" {
		return MediaNone
	}
	if videoExt.MatchString(name) {
		return MediaVideo
	}
	return MediaImage
}

// Post is a progress update inside a challenge.
// Upvotes only ever changes through the upvote operation.
type Post struct {
	ID            string    `json:"id"`
	ChallengeID   string    `json:"challenge_id"`
	UserID        string    `json:"user_id"`
	Content       string    `json:"content"`
	MediaURL      string    `json:"media_url,omitempty"`
	MediaKind     MediaKind `json:"media_kind,omitempty"`
	MediaBlurHash string    `json:"media_blurhash,omitempty"`
	Upvotes       int       `json:"upvotes"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsAuthor reports whether userID wrote the post.
func (p *Post) IsAuthor(userID string) bool {
	return p.UserID == userID
}

// Upvote records that a user voted for a post. There is at most one per (post, user).
type Upvote struct {
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UpvoteResult reports the outcome of an upvote attempt.
type UpvoteResult struct {
	// Applied is false when the voter had already upvoted the post.
	Applied bool `json:"applied"`
	Upvotes int  `json:"upvotes"`
}
