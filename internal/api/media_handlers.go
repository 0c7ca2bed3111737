package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

// uploadOverhead leaves room above the media limit so the service, not the
// transport, reports oversized files.
const uploadOverhead = 1 << 10

func (s *Server) registerMediaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "uploadMedia",
		Method:        http.MethodPost,
		Path:          "/api/v1/media",
		Summary:       "Upload media",
		Description:   "Uploads a progress photo or video. The raw file is the request body.",
		Tags:          []string{"Media"},
		Security:      bearerSecurity,
		MaxBodyBytes:  s.opts.MaxUploadSize + uploadOverhead,
		DefaultStatus: http.StatusCreated,
	}, s.handleUploadMedia)
}

// UploadMediaInput carries a raw file upload.
type UploadMediaInput struct {
	Filename    string `query:"filename" required:"true" doc:"Original file name; its extension selects the media kind"`
	ContentType string `header:"Content-Type" doc:"File content type"`
	RawBody     []byte
}

// UploadMediaOutput wraps the stored file for Huma.
type UploadMediaOutput struct {
	Body *service.MediaUpload
}

func (s *Server) handleUploadMedia(ctx context.Context, input *UploadMediaInput) (*UploadMediaOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("media upload request",
		"user_id", userID,
		"filename", input.Filename,
		"content_type", input.ContentType,
		"body_size", len(input.RawBody),
	)

	upload, err := s.services.Media.Upload(ctx, userID, input.Filename, input.ContentType, bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, err
	}
	return &UploadMediaOutput{Body: upload}, nil
}
