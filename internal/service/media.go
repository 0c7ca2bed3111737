package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/id"
	"github.com/fitchallenge/fitchallenge-server/internal/media/blob"
	"github.com/fitchallenge/fitchallenge-server/internal/media/images"
)

// allowedMediaExt lists the upload extensions accepted for progress media.
var allowedMediaExt = map[string]domain.MediaKind{
	".jpg":  domain.MediaImage,
	".jpeg": domain.MediaImage,
	".png":  domain.MediaImage,
	".gif":  domain.MediaImage,
	".webp": domain.MediaImage,
	".mp4":  domain.MediaVideo,
	".webm": domain.MediaVideo,
	".ogg":  domain.MediaVideo,
}

const (
	keySuffixLength = 8
	maxKeyAttempts  = 3
)

// MediaRemover deletes uploaded files once the posts that referenced them are gone.
type MediaRemover interface {
	Remove(ctx context.Context, ownerID, url string) error
}

// removePostMedia deletes the files attached to posts. Failures are logged
// only; the rows are already gone.
func removePostMedia(ctx context.Context, media MediaRemover, posts []domain.Post, logger *slog.Logger) {
	if media == nil {
		return
	}
	for i := range posts {
		p := &posts[i]
		if p.MediaURL == "" {
			continue
		}
		if err := media.Remove(ctx, p.UserID, p.MediaURL); err != nil {
			logger.Warn("failed to delete post media",
				"post_id", p.ID,
				"media_url", p.MediaURL,
				"error", err,
			)
		}
	}
}

// MediaOptions configures uploads.
type MediaOptions struct {
	Bucket        string
	MaxUploadSize int64
}

// MediaService stores progress photos and videos.
type MediaService struct {
	storage blob.Storage
	opts    MediaOptions
	logger  *slog.Logger
	now     func() time.Time
}

// NewMediaService creates a new media service.
func NewMediaService(storage blob.Storage, opts MediaOptions, logger *slog.Logger) *MediaService {
	if opts.Bucket == "" {
		opts.Bucket = "progress-media"
	}
	return &MediaService{
		storage: storage,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// MediaUpload is the result of a successful upload.
type MediaUpload struct {
	URL      string           `json:"url"`
	Key      string           `json:"key"`
	Kind     domain.MediaKind `json:"kind"`
	BlurHash string           `json:"blurhash,omitempty"`
	Size     int64            `json:"size"`
}

// Upload stores a file for userID under {bucket}/{userID}/{unixMillis}-{suffix}.{ext}.
func (s *MediaService) Upload(ctx context.Context, userID, filename, contentType string, r io.Reader) (*MediaUpload, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := allowedMediaExt[ext]; !ok {
		return nil, domainerrors.Validationf("Unsupported file type %q.", ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadSize {
		return nil, &domainerrors.Error{
			Code:    domainerrors.CodePayloadTooLarge,
			Message: "File is too large.",
			Details: map[string]int64{"max_bytes": s.opts.MaxUploadSize},
		}
	}
	if len(data) == 0 {
		return nil, domainerrors.Validation("File is empty.")
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
	}

	kind := allowedMediaExt[ext]
	up, err := s.put(ctx, userID, ext, contentType, data)
	if err != nil {
		return nil, err
	}

	result := &MediaUpload{URL: up.URL, Key: up.Key, Kind: kind, Size: up.Size}
	if kind == domain.MediaImage {
		hash, err := images.ComputeBlurHash(bytes.NewReader(data))
		if err != nil {
			s.logger.Warn("failed to compute blurhash", "key", up.Key, "error", err)
		} else {
			result.BlurHash = hash
		}
	}

	s.logger.Info("media uploaded",
		"user_id", userID,
		"key", up.Key,
		"kind", kind,
		"size", up.Size,
	)
	return result, nil
}

// put writes data under a fresh key, drawing a new suffix if the key is taken.
func (s *MediaService) put(ctx context.Context, userID, ext, contentType string, data []byte) (*blob.Uploaded, error) {
	for range maxKeyAttempts {
		suffix, err := id.Short(keySuffixLength)
		if err != nil {
			return nil, fmt.Errorf("generate media key: %w", err)
		}
		up, err := s.storage.Upload(ctx, blob.Object{
			Key:         blob.Key(s.opts.Bucket, userID, s.now(), suffix, ext),
			ContentType: contentType,
			Body:        bytes.NewReader(data),
		})
		if errors.Is(err, blob.ErrObjectExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store media: %w", err)
		}
		return up, nil
	}
	return nil, fmt.Errorf("store media: %w", blob.ErrObjectExists)
}

// Remove deletes the stored file behind url if it was uploaded by ownerID.
// URLs that point elsewhere are left alone.
func (s *MediaService) Remove(ctx context.Context, ownerID, url string) error {
	if url == "" {
		return nil
	}
	key, ok := s.storage.KeyForURL(url)
	if !ok || !strings.HasPrefix(key, path.Join(s.opts.Bucket, ownerID)+"/") {
		return nil
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete media %s: %w", key, err)
	}
	s.logger.Info("media deleted", "user_id", ownerID, "key", key)
	return nil
}
