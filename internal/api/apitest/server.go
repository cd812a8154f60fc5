// Package apitest provides an in-memory MindDock backend for tests.
package apitest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/minddock/minddock/internal/types"
)

// BasePath is the versioned prefix served by the fake backend.
const BasePath = "/api/v1"

// Route names one backend operation.
type Route string

const (
	RouteHealth             Route = "health"
	RouteListUsers          Route = "list_users"
	RouteListMemories       Route = "list_memories"
	RouteGetMemory          Route = "get_memory"
	RouteCreateMemory       Route = "create_memory"
	RouteTranscribe         Route = "transcribe"
	RouteUploadAttachment   Route = "upload_attachment"
	RouteDownloadAttachment Route = "download_attachment"
	RouteChat               Route = "chat"
)

type failure struct {
	status int
	body   string
}

// TranscribeCall records the multipart fields of one transcription request.
type TranscribeCall struct {
	Fields      map[string]string
	Filename    string
	ContentType string
	Content     []byte
}

// Server is a fake MindDock backend.
type Server struct {
	server *httptest.Server

	mu          sync.Mutex
	users       []*types.User
	memories    []*types.Memory
	files       map[string][]byte
	failures    map[Route][]failure
	calls       map[Route]int
	chats       []*types.ChatRequest
	transcribes []*TranscribeCall
	headers     []http.Header
	chatHandler func(*types.ChatRequest) *types.ChatResponse
	transcript  string
	now         func() time.Time
}

// NewServer starts a fake backend. Close it when done.
func NewServer() *Server {
	s := &Server{
		files:    map[string][]byte{},
		failures: map[Route][]failure{},
		calls:    map[Route]int{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handle(RouteHealth, s.health))
	r.Route(BasePath, func(r chi.Router) {
		r.Get("/users/", s.handle(RouteListUsers, s.listUsers))
		r.Get("/memories/", s.handle(RouteListMemories, s.listMemories))
		r.Post("/memories/", s.handle(RouteCreateMemory, s.createMemory))
		r.Post("/memories/transcribe", s.handle(RouteTranscribe, s.transcribe))
		r.Get("/memories/{memoryID}", s.handle(RouteGetMemory, s.getMemory))
		r.Post("/memories/{memoryID}/attachments", s.handle(RouteUploadAttachment, s.uploadAttachment))
		r.Get("/memories/{memoryID}/attachments/{attachmentID}", s.handle(RouteDownloadAttachment, s.downloadAttachment))
		r.Post("/assistant/chat", s.handle(RouteChat, s.chat))
	})
	return r
}

// handle counts the call and serves a queued failure if one exists.
func (s *Server) handle(route Route, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		s.headers = append(s.headers, r.Header.Clone())
		var fail *failure
		if queued := s.failures[route]; len(queued) > 0 {
			fail = &queued[0]
			s.failures[route] = queued[1:]
		}
		s.mu.Unlock()

		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			io.WriteString(w, fail.body)
			return
		}
		next(w, r)
	}
}

// URL returns the versioned API base url.
func (s *Server) URL() string {
	return s.server.URL + BasePath
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// AddUser registers a user.
func (s *Server) AddUser(email, fullName string) *types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &types.User{ID: uuid.NewString(), Email: email, IsActive: true, CreatedAt: s.now()}
	if fullName != "" {
		user.FullName = &fullName
	}
	s.users = append(s.users, user)
	return user
}

// AddMemory stores a memory directly, bypassing the API.
func (s *Server) AddMemory(ownerID, title, content string, tags ...string) *types.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMemory(&types.CreateMemoryRequest{OwnerID: ownerID, Title: title, Content: content, Tags: tags})
}

// Fail queues a one-shot failure for route with a JSON `detail`.
// An empty detail produces a body without the field.
func (s *Server) Fail(route Route, status int, detail string) {
	body := "{}"
	if detail != "" {
		encoded, _ := json.Marshal(map[string]string{"detail": detail})
		body = string(encoded)
	}
	s.FailRaw(route, status, body)
}

// FailRaw queues a one-shot failure with a raw body.
func (s *Server) FailRaw(route Route, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, body: body})
}

// SetChatHandler replaces the default echo assistant.
func (s *Server) SetChatHandler(handler func(*types.ChatRequest) *types.ChatResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatHandler = handler
}

// SetTranscript fixes the text produced by transcription.
func (s *Server) SetTranscript(transcript string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = transcript
}

// Calls returns how many requests route has served, failures included.
func (s *Server) Calls(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// ChatRequests returns every decoded chat request, in order.
func (s *Server) ChatRequests() []*types.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*types.ChatRequest(nil), s.chats...)
}

// TranscribeCalls returns every transcription request, in order.
func (s *Server) TranscribeCalls() []*TranscribeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*TranscribeCall(nil), s.transcribes...)
}

// Headers returns the headers of every request, in order.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

// Memories returns the stored memories of ownerID, in insertion order.
func (s *Server) Memories(ownerID string) []*types.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var memories []*types.Memory
	for _, memory := range s.memories {
		if memory.OwnerID == ownerID {
			memories = append(memories, memory)
		}
	}
	return memories
}

func (s *Server) insertMemory(req *types.CreateMemoryRequest) *types.Memory {
	now := s.now()
	memory := &types.Memory{
		ID:             uuid.NewString(),
		OwnerID:        req.OwnerID,
		Title:          req.Title,
		Content:        req.Content,
		Tags:           req.Tags,
		CapturedAt:     req.CapturedAt,
		SourceDevice:   req.SourceDevice,
		SourceLocation: req.SourceLocation,
		Context:        req.Context,
		CreatedAt:      now,
		UpdatedAt:      now,
		Attachments:    []*types.Attachment{},
	}
	s.memories = append(s.memories, memory)
	return memory
}

func (s *Server) findMemory(id string) *types.Memory {
	for _, memory := range s.memories {
		if memory.ID == id {
			return memory
		}
	}
	return nil
}

func (s *Server) userExists(id string) bool {
	for _, user := range s.users {
		if user.ID == id {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// deriveTitle mirrors the backend: an explicit title wins, else the collapsed
// transcript truncated to 48 runes.
func deriveTitle(transcript, provided string) string {
	if provided = strings.TrimSpace(provided); provided != "" {
		return provided
	}
	collapsed := strings.Join(strings.Fields(transcript), " ")
	runes := []rune(collapsed)
	if len(runes) <= 48 {
		return collapsed
	}
	return string(runes[:48]) + "…"
}
