// Package blob stores uploaded progress media and hands back public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Object is a file to upload.
type Object struct {
	// Key is the slash-separated storage path, e.g. "progress-media/user-x/1700000000000.jpg".
	Key         string
	ContentType string
	Body        io.Reader
}

// Uploaded describes a stored object.
type Uploaded struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Storage is implemented by the local filesystem and Cloudinary backends.
type Storage interface {
	// Upload stores obj without replacing an existing object. The local
	// backend reports a taken key as ErrObjectExists.
	Upload(ctx context.Context, obj Object) (*Uploaded, error)
	Delete(ctx context.Context, key string) error
	// KeyForURL maps a URL returned by Upload back to its key.
	KeyForURL(url string) (string, bool)
}

var (
	// ErrInvalidKey is returned for keys that are empty or escape the bucket.
	ErrInvalidKey = errors.New("invalid object key")
	// ErrObjectExists is returned when an upload targets a key that is already stored.
	ErrObjectExists = errors.New("object already exists")
)

// Key builds the storage path for an upload: {bucket}/{userID}/{unixMillis}-{suffix}.{ext}.
// suffix keeps uploads made in the same millisecond apart.
func Key(bucket, userID string, at time.Time, suffix, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	return path.Join(bucket, userID, fmt.Sprintf("%d-%s.%s", at.UnixMilli(), suffix, ext))
}

// cleanKey validates key and returns its canonical form.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
