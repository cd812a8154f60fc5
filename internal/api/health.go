package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Health calls the unversioned /health endpoint at the backend root.
func (c *Client) Health(ctx context.Context) (string, error) {
	root := *c.baseURL
	root.Path = ""
	root.RawPath = ""
	healthClient := *c
	healthClient.baseURL = &root

	resp, err := healthClient.do(ctx, &request{method: http.MethodGet, path: "/health"})
	if err != nil {
		return "", errors.Wrap(err, "checking health")
	}
	payload := struct {
		Status string `json:"status"`
	}{}
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return "", errors.Wrap(err, "unmarshaling health")
	}
	return payload.Status, nil
}
