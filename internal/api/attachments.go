package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// UploadAttachment attaches a file to an existing memory.
func (c *Client) UploadAttachment(ctx context.Context, memoryID string, upload *types.Upload) (*types.Attachment, error) {
	if upload == nil {
		return nil, errors.New("file cannot be nil")
	}
	form := newMultipartForm()
	form.file("file", upload)
	body, contentType, err := form.close()
	if err != nil {
		return nil, errors.Wrap(err, "encoding multipart form")
	}

	path := "/memories/" + url.PathEscape(memoryID) + "/attachments"
	resp, err := c.do(ctx, &request{method: http.MethodPost, path: path, body: body, contentType: contentType})
	if err != nil {
		return nil, errors.Wrapf(err, "uploading attachment to %s", memoryID)
	}
	attachment := &types.Attachment{}
	if err := unmarshal(resp, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

// DownloadAttachment returns the raw bytes of an attachment and their content type.
func (c *Client) DownloadAttachment(ctx context.Context, memoryID, attachmentID string) ([]byte, string, error) {
	path := "/memories/" + url.PathEscape(memoryID) + "/attachments/" + url.PathEscape(attachmentID)
	resp, err := c.do(ctx, &request{method: http.MethodGet, path: path})
	if err != nil {
		return nil, "", errors.Wrapf(err, "downloading attachment %s", attachmentID)
	}
	return resp.body, resp.contentType, nil
}
