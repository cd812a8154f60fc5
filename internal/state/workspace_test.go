package state

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/api/apitest"
	"github.com/minddock/minddock/internal/types"
)

func newAPIWorkspace(t *testing.T, opts WorkspaceOptions) (*Workspace, *apitest.Server) {
	t.Helper()
	server := apitest.NewServer()
	t.Cleanup(server.Close)
	client, err := api.New(api.Options{BaseURL: server.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	return NewWorkspace(client, opts), server
}

func TestLoadUsers_SelectsFirstUser(t *testing.T) {
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	alice := server.AddUser("alice@example.com", "Alice")
	server.AddUser("bob@example.com", "")
	memory := server.AddMemory(alice.ID, "Trip", "Lisbon")

	require.NoError(t, workspace.LoadUsers(context.Background()))

	snapshot := workspace.Snapshot()
	assert.Len(t, snapshot.Users, 2)
	assert.Equal(t, alice.ID, snapshot.ActiveUserID)
	assert.Equal(t, "Alice", snapshot.ActiveUser().DisplayName())
	assert.Equal(t, memory.ID, snapshot.ActiveMemoryID)
	require.NotNil(t, snapshot.Selected)
	assert.Equal(t, "Lisbon", snapshot.Selected.Content)
	assert.True(t, snapshot.Stable)
}

func TestLoadUsers_DefaultUserByEmail(t *testing.T) {
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{DefaultUser: "bob@example.com"})
	server.AddUser("alice@example.com", "")
	bob := server.AddUser("bob@example.com", "")

	require.NoError(t, workspace.LoadUsers(context.Background()))

	assert.Equal(t, bob.ID, workspace.Store().UserID())
	assert.Empty(t, workspace.Store().Memories())
}

func TestLoadUsers_Failure(t *testing.T) {
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	server.Fail(apitest.RouteListUsers, http.StatusInternalServerError, "")

	require.Error(t, workspace.LoadUsers(context.Background()))

	_, message := workspace.Status().Get()
	assert.Equal(t, MsgLoadUsers, message)
	assert.Empty(t, workspace.Store().UserID())
}

func TestCreateMemoFocusesItAfterRefresh(t *testing.T) {
	ctx := context.Background()
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	user := server.AddUser("u@example.com", "")
	m1 := server.AddMemory(user.ID, "M1", "one")
	m2 := server.AddMemory(user.ID, "M2", "two")
	require.NoError(t, workspace.LoadUsers(ctx))
	require.NoError(t, workspace.Synchronizer.SelectMemory(ctx, m2.ID))

	m3, err := workspace.Mutations.CreateMemo(ctx, MemoForm{Title: "M3", Content: "three", Tags: "a, b , a"})
	require.NoError(t, err)

	snapshot := workspace.Snapshot()
	var ids []string
	for _, memory := range snapshot.Memories {
		ids = append(ids, memory.ID)
	}
	assert.Equal(t, []string{m1.ID, m2.ID, m3.ID}, ids)
	assert.Equal(t, m3.ID, snapshot.ActiveMemoryID)
	assert.Equal(t, m3.ID, snapshot.Selected.ID)
	assert.Equal(t, []string{"a", "b", "a"}, snapshot.Selected.Tags)
	assert.Equal(t, MsgMemoSaved, snapshot.Status)
}

func TestChatSummarizeSelectedMemory(t *testing.T) {
	ctx := context.Background()
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	user := server.AddUser("u@example.com", "")
	m1 := server.AddMemory(user.ID, "T", "S")
	score := 0.87
	server.SetChatHandler(func(req *types.ChatRequest) *types.ChatResponse {
		return &types.ChatResponse{
			Reply:   "Summary",
			Context: []*types.ContextRef{{MemoryID: m1.ID, Title: "T", Snippet: "S", Score: &score}},
		}
	})
	require.NoError(t, workspace.LoadUsers(ctx))

	require.NoError(t, workspace.Chat.Send(ctx, "summarize"))

	requests := server.ChatRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, []string{m1.ID}, requests[0].MemoryIDs)
	assert.Nil(t, requests[0].History)
	transcript := workspace.Snapshot().Transcript
	require.Len(t, transcript, 2)
	assert.Equal(t, []*types.ContextRef{{MemoryID: m1.ID, Title: "T", Snippet: "S", Score: &score}}, transcript[1].Context)
}

func TestTranscribeAndAttachThroughAPI(t *testing.T) {
	ctx := context.Background()
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	user := server.AddUser("u@example.com", "")
	server.SetTranscript("remember to call the plumber tomorrow morning")
	require.NoError(t, workspace.LoadUsers(ctx))

	created, err := workspace.Mutations.TranscribeAudio(ctx, AudioForm{
		File: &types.Upload{Filename: "memo.wav", ContentType: "audio/wav", Content: []byte("RIFF")},
		Tags: "home",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, workspace.Store().MemoryID())
	assert.Equal(t, `["home"]`, server.TranscribeCalls()[0].Fields["tags"])
	assert.Equal(t, user.ID, server.TranscribeCalls()[0].Fields["owner_id"])

	_, err = workspace.Mutations.AttachFile(ctx, AttachForm{File: &types.Upload{Filename: "plumber.txt", Content: []byte("555-0100")}})
	require.NoError(t, err)
	selected := workspace.Store().Selected()
	require.Len(t, selected.Attachments, 2)
	assert.Equal(t, "plumber.txt", selected.Attachments[1].Filename)
}

func TestMutationSurfacesBackendDetail(t *testing.T) {
	ctx := context.Background()
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	server.AddUser("u@example.com", "")
	require.NoError(t, workspace.LoadUsers(ctx))
	server.Fail(apitest.RouteCreateMemory, http.StatusNotFound, "Owner not found")

	_, err := workspace.Mutations.CreateMemo(ctx, MemoForm{Title: "t", Content: "c"})
	require.Error(t, err)

	_, message := workspace.Status().Get()
	assert.Equal(t, "Owner not found", message)

	server.Fail(apitest.RouteCreateMemory, http.StatusInternalServerError, "")
	_, err = workspace.Mutations.CreateMemo(ctx, MemoForm{Title: "t", Content: "c"})
	require.Error(t, err)
	_, message = workspace.Status().Get()
	assert.Equal(t, "Internal Server Error", message)
}

func TestOnChangeFires(t *testing.T) {
	workspace, server := newAPIWorkspace(t, WorkspaceOptions{})
	server.AddUser("u@example.com", "")
	var changes atomic.Int32
	workspace.OnChange(func() { changes.Add(1) })

	require.NoError(t, workspace.LoadUsers(context.Background()))

	assert.Positive(t, changes.Load())
}
