package types

import (
	"time"
)

// Role of a chat turn.
type Role string

const (
	// RoleUser is a turn typed by the user.
	RoleUser Role = "user"
	// RoleAssistant is a turn produced by the assistant.
	RoleAssistant Role = "assistant"
)

// User is a backend account. The client never mutates users.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the full name when set, else the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Email
}

// Memory is a stored note owned by one user.
type Memory struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags,omitempty"`
	CapturedAt     *time.Time     `json:"captured_at,omitempty"`
	SourceDevice   *string        `json:"source_device,omitempty"`
	SourceLocation *string        `json:"source_location,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Attachments    []*Attachment  `json:"attachments,omitempty"`
}

// Attachment is a file uploaded against a memory.
type Attachment struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType *string   `json:"content_type,omitempty"`
	SizeBytes   *int64    `json:"size_bytes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContextRef points from an assistant reply back to a memory it used.
type ContextRef struct {
	MemoryID string   `json:"memory_id"`
	Title    string   `json:"title"`
	Snippet  string   `json:"snippet"`
	Score    *float64 `json:"score,omitempty"`
}

// ChatMessage is one turn of the transcript. Context is only set on assistant turns.
type ChatMessage struct {
	Role    Role          `json:"role"`
	Content string        `json:"content"`
	Context []*ContextRef `json:"context,omitempty"`
}

// HistoryEntry is the wire form of a prior transcript turn.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CreateMemoryRequest is the JSON body of POST /memories/.
type CreateMemoryRequest struct {
	OwnerID        string         `json:"owner_id"`
	Title          string         `json:"title"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags,omitempty"`
	CapturedAt     *time.Time     `json:"captured_at,omitempty"`
	SourceDevice   *string        `json:"source_device,omitempty"`
	SourceLocation *string        `json:"source_location,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// TranscribeRequest holds the multipart fields of POST /memories/transcribe.
type TranscribeRequest struct {
	OwnerID        string
	File           *Upload
	Title          string
	Tags           []string
	CapturedAt     *time.Time
	SourceDevice   string
	SourceLocation string
}

// Upload is a file chosen by the user for upload.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ChatRequest is the JSON body of POST /assistant/chat.
type ChatRequest struct {
	Message   string          `json:"message"`
	OwnerID   *string         `json:"owner_id,omitempty"`
	MemoryIDs []string        `json:"memory_ids,omitempty"`
	History   []*HistoryEntry `json:"history,omitempty"`
	TopK      *int            `json:"top_k,omitempty"`
	UseRAG    *bool           `json:"use_rag,omitempty"`
}

// ChatResponse is the assistant reply.
type ChatResponse struct {
	Reply         string        `json:"reply"`
	UsedMemoryIDs []string      `json:"used_memory_ids,omitempty"`
	Context       []*ContextRef `json:"context,omitempty"`
}

// NewUserMessage returns a user turn.
func NewUserMessage(content string) *ChatMessage {
	return &ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage returns an assistant turn.
func NewAssistantMessage(content string, context []*ContextRef) *ChatMessage {
	return &ChatMessage{Role: RoleAssistant, Content: content, Context: context}
}

// ToHistory strips a transcript down to role and content.
func ToHistory(messages []*ChatMessage) []*HistoryEntry {
	if len(messages) == 0 {
		return nil
	}
	history := make([]*HistoryEntry, len(messages))
	for i, message := range messages {
		history[i] = &HistoryEntry{Role: message.Role, Content: message.Content}
	}
	return history
}
