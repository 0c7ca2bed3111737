package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/media/blob"
)

func setupTestMediaService(t *testing.T, maxSize int64) (*MediaService, string) {
	t.Helper()
	root := t.TempDir()
	storage, err := blob.NewLocalStorage(root, "http://localhost:8080/media")
	require.NoError(t, err)

	svc := NewMediaService(storage, MediaOptions{Bucket: "progress-media", MaxUploadSize: maxSize}, discardLogger())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, root
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for x := range 32 {
		for y := range 16 {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 16), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMediaService_UploadImage(t *testing.T) {
	svc, root := setupTestMediaService(t, 1<<20)
	data := testPNG(t)

	up, err := svc.Upload(context.Background(), "user-1", "Progress.PNG", "image/png", bytes.NewReader(data))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "progress-media/user-1/1700000000000-"), up.Key)
	assert.True(t, strings.HasSuffix(up.Key, ".png"), up.Key)
	assert.Equal(t, "http://localhost:8080/media/"+up.Key, up.URL)
	assert.Equal(t, domain.MediaImage, up.Kind)
	assert.NotEmpty(t, up.BlurHash)
	assert.Equal(t, int64(len(data)), up.Size)

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(up.Key)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

func TestMediaService_UploadSameMillisecond(t *testing.T) {
	svc, root := setupTestMediaService(t, 1<<20)
	ctx := context.Background()

	first, err := svc.Upload(ctx, "user-1", "a.mp4", "video/mp4", strings.NewReader("first-video"))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, "user-1", "b.mp4", "video/mp4", strings.NewReader("second-video"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(first.Key)))
	require.NoError(t, err)
	assert.Equal(t, "first-video", string(stored))

	stored, err = os.ReadFile(filepath.Join(root, filepath.FromSlash(second.Key)))
	require.NoError(t, err)
	assert.Equal(t, "second-video", string(stored))
}

func TestMediaService_Remove(t *testing.T) {
	svc, root := setupTestMediaService(t, 1<<20)
	ctx := context.Background()

	up, err := svc.Upload(ctx, "user-1", "a.mp4", "video/mp4", strings.NewReader("clip"))
	require.NoError(t, err)
	path := filepath.Join(root, filepath.FromSlash(up.Key))

	// Another user's post cannot take the file with it.
	require.NoError(t, svc.Remove(ctx, "user-2", up.URL))
	assert.FileExists(t, path)

	require.NoError(t, svc.Remove(ctx, "user-1", "https://elsewhere.example.com/clip.mp4"))
	require.NoError(t, svc.Remove(ctx, "user-1", ""))
	assert.FileExists(t, path)

	require.NoError(t, svc.Remove(ctx, "user-1", up.URL))
	assert.NoFileExists(t, path)
}

func TestMediaService_UploadVideo(t *testing.T) {
	svc, _ := setupTestMediaService(t, 1<<20)

	up, err := svc.Upload(context.Background(), "user-1", "clip.webm", "", strings.NewReader("not really a video"))
	require.NoError(t, err)
	assert.Equal(t, domain.MediaVideo, up.Kind)
	assert.Empty(t, up.BlurHash)
	assert.True(t, strings.HasSuffix(up.Key, ".webm"))
}

func TestMediaService_UploadUndecodableImage(t *testing.T) {
	svc, _ := setupTestMediaService(t, 1<<20)

	up, err := svc.Upload(context.Background(), "user-1", "broken.jpg", "image/jpeg", strings.NewReader("garbage"))
	require.NoError(t, err, "a missing placeholder does not fail the upload")
	assert.Equal(t, domain.MediaImage, up.Kind)
	assert.Empty(t, up.BlurHash)
}

func TestMediaService_UploadRejected(t *testing.T) {
	svc, _ := setupTestMediaService(t, 16)

	tests := []struct {
		name     string
		filename string
		body     string
		code     domainerrors.Code
	}{
		{"disallowed extension", "payload.exe", "MZ", domainerrors.CodeValidation},
		{"no extension", "README", "text", domainerrors.CodeValidation},
		{"too large", "big.jpg", strings.Repeat("x", 17), domainerrors.CodePayloadTooLarge},
		{"empty", "empty.png", "", domainerrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), "user-1", tt.filename, "", strings.NewReader(tt.body))
			requireCode(t, err, tt.code)
		})
	}
}
