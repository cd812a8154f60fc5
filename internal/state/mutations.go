package state

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/minddock/minddock/internal/api"
	"github.com/minddock/minddock/internal/debug"
	"github.com/minddock/minddock/internal/tags"
	"github.com/minddock/minddock/internal/types"
)

var validate = validator.New()

// MemoForm is the text memo form. Tags is the raw comma-separated field.
type MemoForm struct {
	Title          string `validate:"required"`
	Content        string `validate:"required"`
	Tags           string
	CapturedAt     *time.Time
	SourceDevice   string
	SourceLocation string
	Context        map[string]any
}

// AudioForm is the audio memo form.
type AudioForm struct {
	File           *types.Upload `validate:"required"`
	Title          string
	Tags           string
	CapturedAt     *time.Time
	SourceDevice   string
	SourceLocation string
}

// AttachForm is the attachment form.
type AttachForm struct {
	File *types.Upload `validate:"required"`
}

// Mutations drives the create-memo, transcribe-audio and attach-file flows.
// Each flow rejects resubmission while pending; different flows may overlap.
// On success the caller resets its form.
type Mutations struct {
	repository   Repository
	store        *Store
	status       *Status
	synchronizer *Synchronizer

	createMemo *Flow
	transcribe *Flow
	attachFile *Flow

	log zerolog.Logger
}

// NewMutations instantiates and returns a Mutations.
func NewMutations(repository Repository, store *Store, status *Status, synchronizer *Synchronizer) *Mutations {
	return &Mutations{
		repository:   repository,
		store:        store,
		status:       status,
		synchronizer: synchronizer,
		createMemo:   newFlow(FlowCreateMemo, store.changes),
		transcribe:   newFlow(FlowTranscribe, store.changes),
		attachFile:   newFlow(FlowAttachFile, store.changes),
		log:          debug.Component("mutations"),
	}
}

// Flows returns the three mutation flows.
func (m *Mutations) Flows() []*Flow {
	return []*Flow{m.createMemo, m.transcribe, m.attachFile}
}

// CreateMemo creates a text memo for the active user and focuses it.
func (m *Mutations) CreateMemo(ctx context.Context, form MemoForm) (*types.Memory, error) {
	if err := m.createMemo.Begin(); err != nil {
		return nil, err
	}
	m.status.Clear()

	userID := m.store.UserID()
	if userID == "" {
		return nil, m.invalid(m.createMemo, MsgMemoNeedsUser)
	}
	form.Title = strings.TrimSpace(form.Title)
	form.Content = strings.TrimSpace(form.Content)
	if err := validate.Struct(&form); err != nil {
		return nil, m.invalid(m.createMemo, MsgMemoNeedsFields)
	}

	req := &types.CreateMemoryRequest{
		OwnerID:    userID,
		Title:      form.Title,
		Content:    form.Content,
		Tags:       tags.Parse(form.Tags),
		CapturedAt: form.CapturedAt,
		Context:    form.Context,
	}
	if device := strings.TrimSpace(form.SourceDevice); device != "" {
		req.SourceDevice = &device
	}
	if location := strings.TrimSpace(form.SourceLocation); location != "" {
		req.SourceLocation = &location
	}
	created, err := m.repository.CreateMemory(ctx, req)
	if err != nil {
		return nil, m.failed(m.createMemo, err, MsgMemoFailed)
	}
	m.log.Info().Str("memory_id", created.ID).Msg("memo created")
	m.status.SetStatus(MsgMemoSaved)
	m.refocus(ctx, userID, created.ID)
	m.createMemo.Succeed()
	return created, nil
}

// TranscribeAudio uploads an audio file for the active user and focuses the
// memory created from its transcript.
func (m *Mutations) TranscribeAudio(ctx context.Context, form AudioForm) (*types.Memory, error) {
	if err := m.transcribe.Begin(); err != nil {
		return nil, err
	}
	m.status.Clear()

	userID := m.store.UserID()
	if userID == "" {
		return nil, m.invalid(m.transcribe, MsgAudioNeedsUser)
	}
	if err := validate.Struct(&form); err != nil {
		return nil, m.invalid(m.transcribe, MsgAudioNeedsFile)
	}

	created, err := m.repository.CreateMemoryFromAudio(ctx, &types.TranscribeRequest{
		OwnerID:        userID,
		File:           form.File,
		Title:          strings.TrimSpace(form.Title),
		Tags:           tags.Parse(form.Tags),
		CapturedAt:     form.CapturedAt,
		SourceDevice:   strings.TrimSpace(form.SourceDevice),
		SourceLocation: strings.TrimSpace(form.SourceLocation),
	})
	if err != nil {
		return nil, m.failed(m.transcribe, err, MsgAudioFailed)
	}
	m.log.Info().Str("memory_id", created.ID).Str("filename", form.File.Filename).Msg("audio transcribed")
	m.status.SetStatus(MsgAudioSaved)
	m.refocus(ctx, userID, created.ID)
	m.transcribe.Succeed()
	return created, nil
}

// AttachFile uploads a file to the selected memory, reloads its detail and
// refreshes the list keeping it focused.
func (m *Mutations) AttachFile(ctx context.Context, form AttachForm) (*types.Attachment, error) {
	if err := m.attachFile.Begin(); err != nil {
		return nil, err
	}
	m.status.Clear()

	memoryID := m.store.MemoryID()
	if memoryID == "" {
		return nil, m.invalid(m.attachFile, MsgAttachNeedsMemory)
	}
	if err := validate.Struct(&form); err != nil {
		return nil, m.invalid(m.attachFile, MsgAttachNeedsFile)
	}
	userID := m.store.UserID()

	attachment, err := m.repository.UploadAttachment(ctx, memoryID, form.File)
	if err != nil {
		return nil, m.failed(m.attachFile, err, MsgAttachFailed)
	}
	m.log.Info().Str("memory_id", memoryID).Str("attachment_id", attachment.ID).Msg("attachment uploaded")
	m.status.SetStatus(MsgAttachmentUploaded)
	if err := m.synchronizer.ReloadSelected(ctx, memoryID); err != nil {
		m.log.Warn().Err(err).Str("memory_id", memoryID).Msg("reloading memory after upload")
	}
	m.refocus(ctx, userID, memoryID)
	m.attachFile.Succeed()
	return attachment, nil
}

// refocus refreshes the list focusing memoryID. Failures are reported by the
// synchronizer and do not fail the mutation.
func (m *Mutations) refocus(ctx context.Context, userID, memoryID string) {
	if err := m.synchronizer.refresh(ctx, userID, memoryID); err != nil {
		m.log.Warn().Err(err).Str("memory_id", memoryID).Msg("refreshing after mutation")
	}
}

func (m *Mutations) invalid(flow *Flow, message string) error {
	err := &ValidationError{Message: message}
	m.status.SetError(message)
	flow.Fail(err)
	return err
}

// failed reports a backend failure with its detail when there is one.
func (m *Mutations) failed(flow *Flow, err error, fallback string) error {
	m.log.Error().Err(err).Str("flow", string(flow.Name())).Msg("mutation failed")
	message, ok := api.Message(err)
	if !ok {
		message = fallback
	}
	m.status.SetError(message)
	flow.Fail(err)
	return errors.Wrap(err, string(flow.Name()))
}
