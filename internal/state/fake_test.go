package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

// gate parks one backend call until released.
type gate struct {
	arrived chan struct{}
	release chan struct{}
}

func (g *gate) open() {
	close(g.release)
}

// fakeBackend is an in-memory Backend whose calls can be held and failed.
type fakeBackend struct {
	mu sync.Mutex

	users    []*types.User
	memories []*types.Memory
	// foreign memories are returned by ListMemories regardless of owner.
	foreign []*types.Memory
	nextID  int

	gates map[string]*gate
	errs  map[string]error
	calls map[string]int

	chatRequests []*types.ChatRequest
	chatReply    func(*types.ChatRequest) *types.ChatResponse
	transcribes  []*types.TranscribeRequest
	creates      []*types.CreateMemoryRequest
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		gates: map[string]*gate{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeBackend) addUser(id string) *types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &types.User{ID: id, Email: id + "@example.com", IsActive: true}
	f.users = append(f.users, user)
	return user
}

func (f *fakeBackend) addMemory(ownerID, id, title string) *types.Memory {
	f.mu.Lock()
	defer f.mu.Unlock()
	memory := &types.Memory{ID: id, OwnerID: ownerID, Title: title, Content: "content of " + title, CreatedAt: time.Now()}
	f.memories = append(f.memories, memory)
	return memory
}

// hold parks the next call named key.
func (f *fakeBackend) hold(key string) *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := &gate{arrived: make(chan struct{}), release: make(chan struct{})}
	f.gates[key] = g
	return g
}

// fail makes the next call named key return err.
func (f *fakeBackend) fail(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[key] = err
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

// enter records a call, waits on its gate and returns its injected error.
func (f *fakeBackend) enter(key string) error {
	f.mu.Lock()
	f.calls[key]++
	g := f.gates[key]
	delete(f.gates, key)
	err := f.errs[key]
	delete(f.errs, key)
	f.mu.Unlock()
	if g != nil {
		close(g.arrived)
		<-g.release
	}
	return err
}

func (f *fakeBackend) ListUsers(ctx context.Context) ([]*types.User, error) {
	if err := f.enter("users"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.User(nil), f.users...), nil
}

func (f *fakeBackend) ListMemories(ctx context.Context, ownerID string) ([]*types.Memory, error) {
	if err := f.enter("list:" + ownerID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var memories []*types.Memory
	for _, memory := range f.memories {
		if memory.OwnerID == ownerID {
			summary := *memory
			summary.Attachments = nil
			memories = append(memories, &summary)
		}
	}
	return append(memories, f.foreign...), nil
}

func (f *fakeBackend) GetMemory(ctx context.Context, memoryID string) (*types.Memory, error) {
	if err := f.enter("get:" + memoryID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, memory := range f.memories {
		if memory.ID == memoryID {
			detail := *memory
			detail.Attachments = append([]*types.Attachment(nil), memory.Attachments...)
			return &detail, nil
		}
	}
	return nil, errors.Errorf("memory %s not found", memoryID)
}

func (f *fakeBackend) newMemoryLocked(ownerID, title, content string, tags []string) *types.Memory {
	f.nextID++
	memory := &types.Memory{
		ID:      fmt.Sprintf("created-%d", f.nextID),
		OwnerID: ownerID,
		Title:   title,
		Content: content,
		Tags:    tags,
	}
	f.memories = append(f.memories, memory)
	return memory
}

func (f *fakeBackend) CreateMemory(ctx context.Context, req *types.CreateMemoryRequest) (*types.Memory, error) {
	if err := f.enter("create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, req)
	return f.newMemoryLocked(req.OwnerID, req.Title, req.Content, req.Tags), nil
}

func (f *fakeBackend) CreateMemoryFromAudio(ctx context.Context, req *types.TranscribeRequest) (*types.Memory, error) {
	if err := f.enter("transcribe"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcribes = append(f.transcribes, req)
	title := req.Title
	if title == "" {
		title = "transcript"
	}
	return f.newMemoryLocked(req.OwnerID, title, "transcript of "+req.File.Filename, req.Tags), nil
}

func (f *fakeBackend) UploadAttachment(ctx context.Context, memoryID string, upload *types.Upload) (*types.Attachment, error) {
	if err := f.enter("attach"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, memory := range f.memories {
		if memory.ID == memoryID {
			f.nextID++
			attachment := &types.Attachment{ID: fmt.Sprintf("attachment-%d", f.nextID), Filename: upload.Filename}
			memory.Attachments = append(memory.Attachments, attachment)
			return attachment, nil
		}
	}
	return nil, errors.Errorf("memory %s not found", memoryID)
}

func (f *fakeBackend) Chat(ctx context.Context, req *types.ChatRequest) (*types.ChatResponse, error) {
	f.mu.Lock()
	f.chatRequests = append(f.chatRequests, req)
	reply := f.chatReply
	f.mu.Unlock()
	if err := f.enter("chat"); err != nil {
		return nil, err
	}
	if reply != nil {
		return reply(req), nil
	}
	return &types.ChatResponse{Reply: "echo: " + req.Message}, nil
}

func (f *fakeBackend) requests() []*types.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.ChatRequest(nil), f.chatRequests...)
}
