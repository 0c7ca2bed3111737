package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage uploads media to Cloudinary. The object key, minus its
// extension, becomes the public ID.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage creates a Cloudinary client from account credentials.
func NewCloudinaryStorage(cloudName, apiKey, apiSecret string) (*CloudinaryStorage, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary configuration is missing")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

// Upload sends obj to Cloudinary and returns its secure URL.
func (s *CloudinaryStorage) Upload(ctx context.Context, obj Object) (*Uploaded, error) {
	key, err := cleanKey(obj.Key)
	if err != nil {
		return nil, err
	}
	overwrite := false

	res, err := s.cld.Upload.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID:     publicID(key),
		Overwrite:    &overwrite,
		ResourceType: resourceType(obj.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload to cloudinary: %s", res.Error.Message)
	}

	return &Uploaded{Key: key, URL: res.SecureURL, Size: int64(res.Bytes)}, nil
}

// Delete destroys the object. Cloudinary reports "not found" as a result, not an error.
func (s *CloudinaryStorage) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID(key),
		ResourceType: resourceType(contentTypeForKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary: %w", err)
	}
	return nil
}

// KeyForURL recovers the key from a delivery URL such as
// https://res.cloudinary.com/{cloud}/image/upload/v1700000000/progress-media/u/1-x.jpg.
func (s *CloudinaryStorage) KeyForURL(url string) (string, bool) {
	_, rest, ok := strings.Cut(url, "/upload/")
	if !ok {
		return "", false
	}
	if version, after, found := strings.Cut(rest, "/"); found && isVersion(version) {
		rest = after
	}
	key, err := cleanKey(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// isVersion matches Cloudinary's "v{digits}" path segment.
func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func resourceType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return "video"
	}
	return "image"
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp4", ".webm", ".ogg":
		return "video/*"
	default:
		return "image/*"
	}
}
