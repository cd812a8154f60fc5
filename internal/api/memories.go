package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// ListMemories returns the memories owned by ownerID, in backend order.
func (c *Client) ListMemories(ctx context.Context, ownerID string) ([]*types.Memory, error) {
	query := url.Values{"owner_id": []string{ownerID}}
	var memories []*types.Memory
	if err := c.doJSON(ctx, http.MethodGet, "/memories/", query, nil, &memories); err != nil {
		return nil, errors.Wrap(err, "listing memories")
	}
	return memories, nil
}

// GetMemory returns a memory with its attachments.
func (c *Client) GetMemory(ctx context.Context, memoryID string) (*types.Memory, error) {
	memory := &types.Memory{}
	if err := c.doJSON(ctx, http.MethodGet, "/memories/"+url.PathEscape(memoryID), nil, nil, memory); err != nil {
		return nil, errors.Wrapf(err, "getting memory %s", memoryID)
	}
	return memory, nil
}

// CreateMemory creates a text memory.
func (c *Client) CreateMemory(ctx context.Context, req *types.CreateMemoryRequest) (*types.Memory, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	memory := &types.Memory{}
	if err := c.doJSON(ctx, http.MethodPost, "/memories/", nil, req, memory); err != nil {
		return nil, errors.Wrap(err, "creating memory")
	}
	return memory, nil
}
