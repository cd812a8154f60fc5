package chat

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minddock/minddock/app"
	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/api/apitest"
	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/types"
)

func newTestApp(t *testing.T) (*app.App, *apitest.Server) {
	t.Helper()
	server := apitest.NewServer()
	t.Cleanup(server.Close)
	client, err := api.New(api.Options{BaseURL: server.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	a, err := app.NewApp(configuration.Default(), client)
	require.NoError(t, err)
	return a, server
}

func TestLastReply(t *testing.T) {
	assert.Nil(t, lastReply(nil))
	assert.Nil(t, lastReply([]*types.ChatMessage{types.NewUserMessage("hi")}))

	reply := types.NewAssistantMessage("hello", nil)
	assert.Same(t, reply, lastReply([]*types.ChatMessage{types.NewUserMessage("hi"), reply}))
}

func TestAskCmd_SendsFocusedQuestion(t *testing.T) {
	a, server := newTestApp(t)
	alice := server.AddUser("alice@example.com", "")
	memory := server.AddMemory(alice.ID, "Trip", "Lisbon")

	cmd := NewAskCmd(a)
	cmd.SetArgs([]string{"--memory", memory.ID, "where", "did", "I", "go?"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	requests := server.ChatRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, "where did I go?", requests[0].Message)
	assert.Equal(t, []string{memory.ID}, requests[0].MemoryIDs)
	require.NotNil(t, requests[0].OwnerID)
	assert.Equal(t, alice.ID, *requests[0].OwnerID)
}

func TestAskCmd_BackendFailure(t *testing.T) {
	a, server := newTestApp(t)
	server.AddUser("alice@example.com", "")
	server.Fail(apitest.RouteChat, 500, "model offline")

	cmd := NewAskCmd(a)
	cmd.SetArgs([]string{"hello"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}
