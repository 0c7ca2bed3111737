// Package search provides full-text search over challenges using Bleve.
package search

import (
	"github.com/fitchallenge/fitchallenge-server/internal/domain"
)

// DocType discriminates documents in the index.
type DocType string

// DocTypeChallenge is the only document type indexed today.
const DocTypeChallenge DocType = "challenge"

// Document is the indexed form of a challenge.
type Document struct {
	ID          string  `json:"id"`
	Type        DocType `json:"type"`
	Title       string  `json:"title"`
	CreatorID   string  `json:"creator_id"`
	CreatorName string  `json:"creator_name,omitempty"`

	Participants int   `json:"participants"`
	StartAt      int64 `json:"start_at"`             // Unix millis
	ExpiresAt    int64 `json:"expires_at,omitempty"` // Unix millis, 0 when open-ended
	CreatedAt    int64 `json:"created_at"`           // Unix millis
}

// ChallengeToDocument converts a challenge into its search document.
func ChallengeToDocument(c *domain.Challenge, creatorName string) *Document {
	doc := &Document{
		ID:           c.ID,
		Type:         DocTypeChallenge,
		Title:        c.Title,
		CreatorID:    c.CreatorID,
		CreatorName:  creatorName,
		Participants: len(c.Participants),
		StartAt:      c.StartAt.UnixMilli(),
		CreatedAt:    c.CreatedAt.UnixMilli(),
	}
	if c.ExpiresAt != nil {
		doc.ExpiresAt = c.ExpiresAt.UnixMilli()
	}
	return doc
}

// ToMap converts the document to a map keyed by the mapped field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":           d.ID,
		"type":         string(d.Type),
		"title":        d.Title,
		"creator_id":   d.CreatorID,
		"participants": float64(d.Participants),
		"start_at":     float64(d.StartAt),
		"created_at":   float64(d.CreatedAt),
	}
	if d.CreatorName != "" {
		m["creator_name"] = d.CreatorName
	}
	if d.ExpiresAt != 0 {
		m["expires_at"] = float64(d.ExpiresAt)
	}
	return m
}
