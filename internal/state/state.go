// Package state keeps the active user, memory list, selected memory and chat
// transcript consistent across overlapping requests.
//
// Only Synchronizer, ChatSession and Mutations write the Store. Every request
// they issue is stamped with the user, generation and memory it targets, and a
// completion whose stamp no longer matches the Store is dropped.
package state

import (
	"context"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// User-facing messages.
const (
	MsgLoadUsers          = "Failed to load users."
	MsgLoadMemories       = "Failed to load memories."
	MsgLoadSelectedMemory = "Failed to load the selected memory."
	MsgAssistantFailed    = "Failed to get a reply from the assistant."

	MsgMemoNeedsUser      = "Select a user before creating a memo."
	MsgMemoNeedsFields    = "Enter both a title and content."
	MsgMemoFailed         = "Failed to create memo."
	MsgMemoSaved          = "Memo saved."
	MsgAudioNeedsUser     = "Select a user before transcribing audio."
	MsgAudioNeedsFile     = "Choose an audio file to upload."
	MsgAudioFailed        = "Failed to transcribe audio."
	MsgAudioSaved         = "Audio transcribed and saved."
	MsgAttachNeedsMemory  = "Select a memo to attach the file to."
	MsgAttachNeedsFile    = "Choose a file to upload."
	MsgAttachFailed       = "Failed to upload attachment."
	MsgAttachmentUploaded = "Attachment uploaded."
)

// Repository is the memory store on the backend.
type Repository interface {
	ListMemories(ctx context.Context, ownerID string) ([]*types.Memory, error)
	GetMemory(ctx context.Context, memoryID string) (*types.Memory, error)
	CreateMemory(ctx context.Context, req *types.CreateMemoryRequest) (*types.Memory, error)
	CreateMemoryFromAudio(ctx context.Context, req *types.TranscribeRequest) (*types.Memory, error)
	UploadAttachment(ctx context.Context, memoryID string, upload *types.Upload) (*types.Attachment, error)
}

// Assistant answers chat turns.
type Assistant interface {
	Chat(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error)
}

// UserLister lists backend users.
type UserLister interface {
	ListUsers(ctx context.Context) ([]*types.User, error)
}

// Backend is everything a Workspace talks to.
type Backend interface {
	Repository
	Assistant
	UserLister
}

// ValidationError blocks an operation before any request is made.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// errStale marks a completion that no longer matches the Store. It never reaches callers.
var errStale = errors.New("stale result")

// ErrUnknownMemory is returned when selecting a memory that is not in the loaded list.
var ErrUnknownMemory = errors.New("memory is not in the loaded list")
