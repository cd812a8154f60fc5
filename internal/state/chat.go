package state

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/minddock/minddock/internal/debug"
	"github.com/minddock/minddock/internal/types"
)

const snippetLength = 160

// ChatOptions are the retrieval knobs forwarded with every chat request.
type ChatOptions struct {
	// Zero omits top_k.
	TopK int
	// Nil omits use_rag.
	UseRAG *bool
}

// ChatSession runs one assistant round trip per Send.
//
// The user turn is published before the request and kept on failure. Sends are
// not serialized: callers should not send while Busy. If they do, the last
// response to arrive wins the published transcript.
type ChatSession struct {
	assistant Assistant
	store     *Store
	status    *Status
	flow      *Flow
	options   ChatOptions
	log       zerolog.Logger
}

// NewChatSession instantiates and returns a ChatSession.
func NewChatSession(assistant Assistant, store *Store, status *Status, options ChatOptions) *ChatSession {
	return &ChatSession{
		assistant: assistant,
		store:     store,
		status:    status,
		flow:      newFlow(FlowChatSend, store.changes),
		options:   options,
		log:       debug.Component("chat"),
	}
}

// Busy reports whether a send is in flight.
func (c *ChatSession) Busy() bool {
	return c.flow.Busy()
}

// Flow returns the send flow.
func (c *ChatSession) Flow() *Flow {
	return c.flow
}

// Reset clears the transcript. Replies still in flight are dropped.
func (c *ChatSession) Reset() {
	c.store.resetTranscript()
}

// Send asks the assistant about input, using the active user and memory.
// Whitespace-only input is ignored.
func (c *ChatSession) Send(ctx context.Context, input string) error {
	message := strings.TrimSpace(input)
	if message == "" {
		return nil
	}
	userID := c.store.UserID()
	memoryID := c.store.MemoryID()

	c.status.Clear()
	prior, history, session := c.store.beginTurn(types.NewUserMessage(message))
	c.flow.enter()

	req := &types.ChatRequest{
		Message: message,
		History: types.ToHistory(prior),
		UseRAG:  c.options.UseRAG,
	}
	if userID != "" {
		req.OwnerID = &userID
	}
	if memoryID != "" {
		req.MemoryIDs = []string{memoryID}
	}
	if c.options.TopK > 0 {
		topK := c.options.TopK
		req.TopK = &topK
	}

	resp, err := c.assistant.Chat(ctx, req)
	if err != nil {
		c.log.Error().Err(err).Int("history", len(prior)).Msg("chat request failed")
		if c.store.publishTranscript(session, history) == nil {
			c.status.SetError(MsgAssistantFailed)
			c.store.restoreDraft(session, input)
		}
		c.flow.Fail(err)
		return errors.Wrap(err, "sending chat message")
	}

	reply := types.NewAssistantMessage(resp.Reply, c.contextRefs(resp))
	transcript := append(append([]*types.ChatMessage(nil), history...), reply)
	if err := c.store.publishTranscript(session, transcript); err != nil {
		c.log.Debug().Msg("reply for a reset transcript dropped")
	}
	c.flow.Succeed()
	return nil
}

// contextRefs returns the references of a reply. When the backend only lists
// used memory ids, references are built from the loaded memories.
func (c *ChatSession) contextRefs(resp *types.ChatResponse) []*types.ContextRef {
	if len(resp.Context) > 0 {
		return resp.Context
	}
	var refs []*types.ContextRef
	for _, id := range resp.UsedMemoryIDs {
		memory := c.store.findMemory(id)
		if memory == nil {
			continue
		}
		refs = append(refs, &types.ContextRef{
			MemoryID: memory.ID,
			Title:    memory.Title,
			Snippet:  snippet(memory.Content),
		})
	}
	return refs
}

// snippet collapses whitespace and truncates content for display.
func snippet(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= snippetLength {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:snippetLength])) + "…"
}
