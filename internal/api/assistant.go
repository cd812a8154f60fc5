package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// Chat sends one user turn to the assistant.
func (c *Client) Chat(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	resp := &types.ChatResponse{}
	if err := c.doJSON(ctx, http.MethodPost, "/assistant/chat", nil, req, resp); err != nil {
		return nil, errors.Wrap(err, "chatting with assistant")
	}
	return resp, nil
}
