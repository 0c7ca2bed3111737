package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/search"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(cfg.Data.BasePath, "search"),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the index in the background when it
// was just created or is empty while challenges exist.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	challenges := do.MustInvoke[*service.ChallengeService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx := context.Background()
	if !indexHandle.Created() {
		docCount, _ := indexHandle.DocumentCount()
		if docCount > 0 {
			return
		}
	}

	existing, err := storeHandle.ListChallenges(ctx)
	if err != nil || len(existing) == 0 {
		return
	}

	log.Info("Search index is empty but challenges exist, triggering reindex",
		"challenge_count", len(existing),
	)

	go func() {
		count, err := challenges.Reindex(ctx)
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		log.Info("Search reindex completed", "documents", count)
	}()
}
