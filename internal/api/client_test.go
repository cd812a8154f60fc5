package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minddock/minddock/internal/api/apitest"
	"github.com/minddock/minddock/internal/configuration"
	"github.com/minddock/minddock/internal/types"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	server := apitest.NewServer()
	t.Cleanup(server.Close)
	client, err := New(Options{BaseURL: server.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client, server
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New(Options{BaseURL: "/api/v1"})
	require.Error(t, err)
}

func TestListUsers(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "Alice")
	server.AddUser("bob@example.com", "")

	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.Equal(t, "Alice", users[0].DisplayName())
	assert.Equal(t, "bob@example.com", users[1].DisplayName())
}

func TestListMemories_FiltersByOwner(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")
	bob := server.AddUser("bob@example.com", "")
	first := server.AddMemory(alice.ID, "First", "one", "work")
	server.AddMemory(bob.ID, "Other", "two")
	second := server.AddMemory(alice.ID, "Second", "three")

	memories, err := client.ListMemories(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, first.ID, memories[0].ID)
	assert.Equal(t, []string{"work"}, memories[0].Tags)
	assert.Equal(t, second.ID, memories[1].ID)
}

func TestGetMemory_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.GetMemory(context.Background(), "missing")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	message, ok := Message(err)
	require.True(t, ok)
	assert.Equal(t, "Memory not found", message)
}

func TestCreateMemory(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")
	device := "phone"

	memory, err := client.CreateMemory(context.Background(), &types.CreateMemoryRequest{
		OwnerID:      alice.ID,
		Title:        "Groceries",
		Content:      "milk",
		Tags:         []string{"home", "list"},
		SourceDevice: &device,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, memory.ID)
	assert.Equal(t, "Groceries", memory.Title)
	assert.Equal(t, []string{"home", "list"}, memory.Tags)
	require.NotNil(t, memory.SourceDevice)
	assert.Equal(t, "phone", *memory.SourceDevice)
	assert.Len(t, server.Memories(alice.ID), 1)
}

func TestCreateMemory_ValidationDetailList(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")

	_, err := client.CreateMemory(context.Background(), &types.CreateMemoryRequest{OwnerID: alice.ID, Title: " ", Content: "x"})
	require.Error(t, err)
	message, ok := Message(err)
	require.True(t, ok)
	assert.Equal(t, "title must not be empty", message)
}

func TestCreateMemoryFromAudio_MultipartFields(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")
	server.SetTranscript("buy milk and eggs")
	capturedAt := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	memory, err := client.CreateMemoryFromAudio(context.Background(), &types.TranscribeRequest{
		OwnerID:      alice.ID,
		File:         &types.Upload{Filename: "note.m4a", ContentType: "audio/mp4", Content: []byte("audio")},
		Tags:         []string{"errand", "home"},
		CapturedAt:   &capturedAt,
		SourceDevice: "watch",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy milk and eggs", memory.Content)
	assert.Equal(t, "buy milk and eggs", memory.Title)
	assert.Equal(t, []string{"errand", "home"}, memory.Tags)
	require.Len(t, memory.Attachments, 1)
	assert.Equal(t, "note.m4a", memory.Attachments[0].Filename)

	calls := server.TranscribeCalls()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, alice.ID, call.Fields["owner_id"])
	assert.Equal(t, `["errand","home"]`, call.Fields["tags"])
	assert.Equal(t, "2024-05-01T09:30:00Z", call.Fields["captured_at"])
	assert.Equal(t, "watch", call.Fields["source_device"])
	assert.NotContains(t, call.Fields, "title")
	assert.NotContains(t, call.Fields, "source_location")
	assert.Equal(t, "note.m4a", call.Filename)
	assert.Equal(t, "audio/mp4", call.ContentType)
	assert.Equal(t, []byte("audio"), call.Content)
}

func TestCreateMemoryFromAudio_OmitsEmptyTags(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")

	_, err := client.CreateMemoryFromAudio(context.Background(), &types.TranscribeRequest{
		OwnerID: alice.ID,
		File:    &types.Upload{Filename: "a.wav", Content: []byte("x")},
		Title:   "Standup",
	})
	require.NoError(t, err)
	call := server.TranscribeCalls()[0]
	assert.NotContains(t, call.Fields, "tags")
	assert.Equal(t, "Standup", call.Fields["title"])
	assert.Equal(t, "application/octet-stream", call.ContentType)
}

func TestUploadAndDownloadAttachment(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")
	memory := server.AddMemory(alice.ID, "Receipt", "lunch")

	attachment, err := client.UploadAttachment(context.Background(), memory.ID, &types.Upload{
		Filename: "receipt.txt", ContentType: "text/plain", Content: []byte("12.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "receipt.txt", attachment.Filename)
	require.NotNil(t, attachment.SizeBytes)
	assert.Equal(t, int64(5), *attachment.SizeBytes)

	detail, err := client.GetMemory(context.Background(), memory.ID)
	require.NoError(t, err)
	require.Len(t, detail.Attachments, 1)

	content, contentType, err := client.DownloadAttachment(context.Background(), memory.ID, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("12.50"), content)
	assert.Equal(t, "text/plain", contentType)
}

func TestChat_RequestEncoding(t *testing.T) {
	client, server := newTestClient(t)
	alice := server.AddUser("alice@example.com", "")
	memory := server.AddMemory(alice.ID, "Trip", "Lisbon in May")
	ownerID := alice.ID
	topK := 3

	resp, err := client.Chat(context.Background(), &types.ChatRequest{
		Message:   "when?",
		OwnerID:   &ownerID,
		MemoryIDs: []string{memory.ID},
		History:   []*types.HistoryEntry{{Role: types.RoleUser, Content: "hi"}, {Role: types.RoleAssistant, Content: "hello"}},
		TopK:      &topK,
	})
	require.NoError(t, err)
	assert.Equal(t, "echo: when?", resp.Reply)
	assert.Equal(t, []string{memory.ID}, resp.UsedMemoryIDs)

	requests := server.ChatRequests()
	require.Len(t, requests, 1)
	sent := requests[0]
	assert.Equal(t, "when?", sent.Message)
	require.NotNil(t, sent.OwnerID)
	assert.Equal(t, alice.ID, *sent.OwnerID)
	require.Len(t, sent.History, 2)
	assert.Equal(t, types.RoleAssistant, sent.History[1].Role)
	require.NotNil(t, sent.TopK)
	assert.Equal(t, 3, *sent.TopK)
	assert.Nil(t, sent.UseRAG)
}

func TestHealth(t *testing.T) {
	client, server := newTestClient(t)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
	assert.Equal(t, 1, server.Calls(apitest.RouteHealth))
}

func TestRequestID(t *testing.T) {
	client, server := newTestClient(t)

	_, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	headers := server.Headers()
	require.Len(t, headers, 1)
	assert.Len(t, headers[0].Get(requestIDHeader), 36)
}

func TestErrorDetail(t *testing.T) {
	for _, tc := range []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "string detail", status: http.StatusBadRequest, body: `{"detail": "Owner not found"}`, expected: "Owner not found"},
		{name: "validation list", status: http.StatusUnprocessableEntity, body: `{"detail": [{"msg": "a"}, {"msg": "b"}]}`, expected: "a; b"},
		{name: "missing detail", status: http.StatusNotFound, body: `{}`, expected: "Not Found"},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, expected: "Bad Gateway"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			client, server := newTestClient(t)
			server.FailRaw(apitest.RouteListUsers, tc.status, tc.body)

			_, err := client.ListUsers(context.Background())
			require.Error(t, err)
			message, ok := Message(err)
			require.True(t, ok)
			assert.Equal(t, tc.expected, message)
		})
	}
}

func TestMessage_NonBackendError(t *testing.T) {
	client, err := New(Options{BaseURL: "http://127.0.0.1:1/api/v1", Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.ListUsers(context.Background())
	require.Error(t, err)
	_, ok := Message(err)
	assert.False(t, ok)
}

func TestCircuitBreaker_OpensOnServerErrors(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	client, err := New(Options{
		BaseURL: server.URL(),
		CircuitBreaker: &configuration.CircuitBreakerConfig{
			MaxRequests:      1,
			Interval:         60,
			Timeout:          60,
			FailureThreshold: 0.5,
			MinRequests:      2,
		},
	})
	require.NoError(t, err)
	server.Fail(apitest.RouteListUsers, http.StatusInternalServerError, "boom")
	server.Fail(apitest.RouteListUsers, http.StatusInternalServerError, "boom")

	for range 2 {
		_, err := client.ListUsers(context.Background())
		require.Error(t, err)
	}
	_, err = client.ListUsers(context.Background())
	require.Error(t, err)
	message, ok := Message(err)
	require.True(t, ok)
	assert.Equal(t, "backend temporarily unavailable", message)
	assert.Equal(t, 2, server.Calls(apitest.RouteListUsers))
}

func TestCircuitBreaker_IgnoresClientErrors(t *testing.T) {
	server := apitest.NewServer()
	defer server.Close()
	client, err := New(Options{
		BaseURL: server.URL(),
		CircuitBreaker: &configuration.CircuitBreakerConfig{
			MaxRequests: 1, Interval: 60, Timeout: 60, FailureThreshold: 0.5, MinRequests: 2,
		},
	})
	require.NoError(t, err)

	for range 3 {
		_, err := client.GetMemory(context.Background(), "missing")
		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	}
	users, err := client.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestEndpoint_KeepsBasePath(t *testing.T) {
	client, err := New(Options{BaseURL: "http://example.com/api/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/v1/memories/?owner_id=u+1", client.endpoint("/memories/", map[string][]string{"owner_id": {"u 1"}}))
}

func TestEndpoint_EscapedSegments(t *testing.T) {
	client, err := New(Options{BaseURL: "http://example.com/api/v1"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/v1/memories/..%2Fusers%2F", client.endpoint("/memories/"+url.PathEscape("../users/"), nil))
}

func TestGetMemory_EscapesID(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.EscapedPath())
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	client, err := New(Options{BaseURL: server.URL + "/api/v1"})
	require.NoError(t, err)

	_, err = client.GetMemory(context.Background(), "../users/")
	require.Error(t, err)
	_, _, err = client.DownloadAttachment(context.Background(), "m 1", "a/1")
	require.Error(t, err)

	assert.Equal(t, []string{
		"/api/v1/memories/..%2Fusers%2F",
		"/api/v1/memories/m%201/attachments/a%2F1",
	}, paths)
}

func TestDownloadAttachment_RejectsOversizedBody(t *testing.T) {
	size := 1024
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(bytes.Repeat([]byte("x"), size))
	}))
	defer server.Close()
	client, err := New(Options{BaseURL: server.URL})
	require.NoError(t, err)
	client.maxBody = 1024

	content, _, err := client.DownloadAttachment(context.Background(), "m1", "a1")
	require.NoError(t, err)
	assert.Len(t, content, 1024)

	size = 1025
	content, _, err = client.DownloadAttachment(context.Background(), "m1", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "response exceeds 1024 bytes")
	assert.Nil(t, content)
}

func TestTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	client, err := New(Options{BaseURL: slow.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.ListUsers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
