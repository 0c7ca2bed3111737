package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search.
type Params struct {
	Query     string
	CreatorID string // optional exact filter
	Limit     int
	Offset    int
	// SortBy is "relevance" (default), "recent" or "title".
	SortBy    string
	Highlight bool
}

// Result is a page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching challenge.
type Hit struct {
	ID           string            `json:"id"`
	Score        float64           `json:"score"`
	Title        string            `json:"title"`
	CreatorID    string            `json:"creator_id"`
	CreatorName  string            `json:"creator_name,omitempty"`
	Participants int               `json:"participants"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Search runs a full-text query over challenge titles and creator names.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	req := bleve.NewSearchRequestOptions(buildQuery(params), limit, max(params.Offset, 0), false)
	switch params.SortBy {
	case "recent":
		req.SortBy([]string{"-created_at"})
	case "title":
		req.SortBy([]string{"title"})
	default:
		req.SortBy([]string{"-_score", "-created_at"})
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}
	req.Fields = []string{"title", "creator_id", "creator_name", "participants"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	out := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["creator_id"].(string); ok {
			hit.CreatorID = v
		}
		if v, ok := h.Fields["creator_name"].(string); ok {
			hit.CreatorName = v
		}
		if v, ok := h.Fields["participants"].(float64); ok {
			hit.Participants = int(v)
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, frags := range h.Fragments {
				if len(frags) > 0 {
					hit.Highlights[field] = frags[0]
				}
			}
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(params Params) query.Query {
	var must []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)

		creator := bleve.NewMatchQuery(q)
		creator.SetField("creator_name")
		creator.SetBoost(1.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		text := []query.Query{title, creator, fuzzy}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		must = append(must, bleve.NewDisjunctionQuery(text...))
	}

	if params.CreatorID != "" {
		tq := bleve.NewTermQuery(params.CreatorID)
		tq.SetField("creator_id")
		must = append(must, tq)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}
