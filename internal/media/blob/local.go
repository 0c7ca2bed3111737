package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage keeps uploads on disk under a root directory and serves them over HTTP.
type LocalStorage struct {
	root      string
	publicURL string // prefix for returned URLs, e.g. "https://fit.example.com/media"
}

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(root, publicURL string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("base path cannot be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStorage{root: root, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

// Upload streams obj.Body to a temp file and hard-links it into place, so
// readers never observe a partial file and an existing object is never replaced.
func (s *LocalStorage) Upload(ctx context.Context, obj Object) (*Uploaded, error) {
	key, err := cleanKey(obj.Key)
	if err != nil {
		return nil, err
	}
	dst := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create object directory: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(dst), ".upload-"+uuid.NewString())
	//#nosec G304 -- tmp is derived from a validated key
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	n, copyErr := io.Copy(f, ctxReader{ctx: ctx, r: obj.Body})
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("write object: %w", errors.Join(copyErr, closeErr))
	}

	linkErr := os.Link(tmp, dst)
	_ = os.Remove(tmp)
	if errors.Is(linkErr, fs.ErrExist) {
		return nil, ErrObjectExists
	}
	if linkErr != nil {
		return nil, fmt.Errorf("commit object: %w", linkErr)
	}

	return &Uploaded{Key: key, URL: s.publicURL + "/" + key, Size: n}, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// KeyForURL strips the public prefix from a URL produced by Upload.
func (s *LocalStorage) KeyForURL(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok {
		return "", false
	}
	key, err := cleanKey(rest)
	if err != nil {
		return "", false
	}
	return key, true
}

// Path returns the filesystem location of key.
func (s *LocalStorage) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Handler serves stored objects. Mount it with http.StripPrefix.
func (s *LocalStorage) Handler() http.Handler {
	return http.FileServer(noDirFS{http.Dir(s.root)})
}

// noDirFS hides directory listings.
type noDirFS struct{ fs http.FileSystem }

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() || strings.HasPrefix(info.Name(), ".upload-") {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// ctxReader stops copying once ctx is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
