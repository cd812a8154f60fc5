// Package app holds the dependencies shared by the minddock commands.
package app

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/state"
)

type App struct {
	Config *configuration.Config
	Client *api.Client
}

func NewApp(config *configuration.Config, client *api.Client) (*App, error) {
	if config == nil || client == nil {
		return nil, errors.New("app requires a config and a client")
	}
	return &App{
		Config: config,
		Client: client,
	}, nil
}

// NewWorkspace returns a workspace over the app client. userRef overrides the configured default user.
func (a *App) NewWorkspace(userRef string) *state.Workspace {
	if userRef == "" {
		userRef = a.Config.DefaultUser
	}
	return state.NewWorkspace(a.Client, state.WorkspaceOptions{
		Chat: state.ChatOptions{
			TopK:   a.Config.Assistant.TopK,
			UseRAG: a.Config.Assistant.UseRAG,
		},
		DefaultUser: userRef,
	})
}

// OpenWorkspace loads users and activates userRef, an id or email. An empty
// userRef activates the configured default user, else the first user.
// Unlike the interactive client, an explicit userRef that matches nobody is an error.
func (a *App) OpenWorkspace(ctx context.Context, userRef string) (*state.Workspace, error) {
	workspace := a.NewWorkspace(userRef)
	if err := workspace.LoadUsers(ctx); err != nil {
		return nil, err
	}
	snapshot := workspace.Snapshot()
	if snapshot.ActiveUserID == "" {
		return nil, errors.New("no users found")
	}
	if userRef != "" {
		user := snapshot.ActiveUser()
		if user.ID != userRef && !strings.EqualFold(user.Email, userRef) {
			return nil, errors.Errorf("unknown user %q", userRef)
		}
	}
	if _, errMsg := workspace.Status().Get(); errMsg != "" {
		return nil, errors.New(errMsg)
	}
	return workspace, nil
}

// OpenMemory opens the workspace of userRef and focuses memoryID when set.
// The memory must belong to the active user.
func (a *App) OpenMemory(ctx context.Context, userRef, memoryID string) (*state.Workspace, error) {
	workspace, err := a.OpenWorkspace(ctx, userRef)
	if err != nil {
		return nil, err
	}
	if memoryID == "" {
		return workspace, nil
	}
	if err := workspace.Synchronizer.SelectMemory(ctx, memoryID); err != nil {
		return nil, errors.Wrapf(err, "focusing memory %s", memoryID)
	}
	return workspace, nil
}
