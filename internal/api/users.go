package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// ListUsers returns every user known to the backend.
func (c *Client) ListUsers(ctx context.Context) ([]*types.User, error) {
	var users []*types.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/", nil, nil, &users); err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	return users, nil
}
