package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/config"
	"github.com/fitchallenge/fitchallenge-server/internal/logger"
	"github.com/fitchallenge/fitchallenge-server/internal/media/blob"
)

// MediaStorage is the configured blob backend. Local is set when files live
// on disk and must be served by this process.
type MediaStorage struct {
	blob.Storage
	Local *blob.LocalStorage
}

// ProvideMediaStorage provides the blob storage for progress media.
func ProvideMediaStorage(i do.Injector) (*MediaStorage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Media.Backend {
	case config.MediaBackendCloudinary:
		storage, err := blob.NewCloudinaryStorage(
			cfg.Media.CloudinaryCloudName,
			cfg.Media.CloudinaryAPIKey,
			cfg.Media.CloudinaryAPISecret,
		)
		if err != nil {
			return nil, fmt.Errorf("cloudinary storage: %w", err)
		}
		log.Info("Media storage initialized", "backend", "cloudinary", "cloud", cfg.Media.CloudinaryCloudName)
		return &MediaStorage{Storage: storage}, nil

	default:
		root := filepath.Join(cfg.Data.BasePath, "media")
		publicURL := strings.TrimSuffix(cfg.Server.PublicURL, "/") + "/media"
		local, err := blob.NewLocalStorage(root, publicURL)
		if err != nil {
			return nil, fmt.Errorf("local media storage: %w", err)
		}
		log.Info("Media storage initialized", "backend", "local", "path", root)
		return &MediaStorage{Storage: local, Local: local}, nil
	}
}
