package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/tags"
	"github.com/minddock/minddock/internal/types"
)

// CreateMemoryFromAudio uploads an audio file for transcription and returns the
// memory created from the transcript.
func (c *Client) CreateMemoryFromAudio(ctx context.Context, req *types.TranscribeRequest) (*types.Memory, error) {
	if req == nil || req.File == nil {
		return nil, errors.New("audio file cannot be nil")
	}

	form := newMultipartForm()
	form.field("owner_id", req.OwnerID)
	form.file("file", req.File)
	if req.Title != "" {
		form.field("title", req.Title)
	}
	tagsField, ok, err := tags.EncodeField(req.Tags)
	if err != nil {
		return nil, err
	}
	if ok {
		form.field("tags", tagsField)
	}
	if req.CapturedAt != nil {
		form.field("captured_at", req.CapturedAt.UTC().Format(time.RFC3339))
	}
	if req.SourceDevice != "" {
		form.field("source_device", req.SourceDevice)
	}
	if req.SourceLocation != "" {
		form.field("source_location", req.SourceLocation)
	}
	body, contentType, err := form.close()
	if err != nil {
		return nil, errors.Wrap(err, "encoding multipart form")
	}

	resp, err := c.do(ctx, &request{method: http.MethodPost, path: "/memories/transcribe", body: body, contentType: contentType})
	if err != nil {
		return nil, errors.Wrap(err, "transcribing audio")
	}
	memory := &types.Memory{}
	if err := unmarshal(resp, memory); err != nil {
		return nil, err
	}
	return memory, nil
}
