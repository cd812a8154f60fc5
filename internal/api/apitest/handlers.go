package apitest

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/minddock/minddock/internal/types"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := append([]*types.User{}, s.users...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) listMemories(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "field required"}},
		})
		return
	}
	memories := s.Memories(ownerID)
	summaries := make([]*types.Memory, 0, len(memories))
	for _, memory := range memories {
		summary := *memory
		summary.Attachments = nil
		summaries = append(summaries, &summary)
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) getMemory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	memory := s.findMemory(chi.URLParam(r, "memoryID"))
	s.mu.Unlock()
	if memory == nil {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	writeJSON(w, http.StatusOK, memory)
}

func (s *Server) createMemory(w http.ResponseWriter, r *http.Request) {
	req := &types.CreateMemoryRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "title must not be empty"}},
		})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.userExists(req.OwnerID) {
		writeDetail(w, http.StatusNotFound, "Owner not found")
		return
	}
	writeJSON(w, http.StatusCreated, s.insertMemory(req))
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil || len(content) == 0 {
		writeDetail(w, http.StatusBadRequest, "Uploaded audio file is empty")
		return
	}

	call := &TranscribeCall{
		Fields:      map[string]string{},
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	for key, values := range r.MultipartForm.Value {
		call.Fields[key] = values[0]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribes = append(s.transcribes, call)
	if !s.userExists(call.Fields["owner_id"]) {
		writeDetail(w, http.StatusNotFound, "Owner not found")
		return
	}

	transcript := s.transcript
	if transcript == "" {
		transcript = fmt.Sprintf("transcript of %s", header.Filename)
	}
	var tags []string
	if raw := call.Fields["tags"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			writeDetail(w, http.StatusBadRequest, "tags must be a JSON list")
			return
		}
	}
	memory := s.insertMemory(&types.CreateMemoryRequest{
		OwnerID: call.Fields["owner_id"],
		Title:   deriveTitle(transcript, call.Fields["title"]),
		Content: transcript,
		Tags:    tags,
		Context: map[string]any{"transcription": map[string]any{"source": "audio_transcription", "filename": header.Filename}},
	})
	s.attach(memory, header.Filename, call.ContentType, content)
	writeJSON(w, http.StatusCreated, memory)
}

func (s *Server) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "unreadable file")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	memory := s.findMemory(chi.URLParam(r, "memoryID"))
	if memory == nil {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	attachment := s.attach(memory, header.Filename, header.Header.Get("Content-Type"), content)
	writeJSON(w, http.StatusOK, attachment)
}

func (s *Server) attach(memory *types.Memory, filename, contentType string, content []byte) *types.Attachment {
	size := int64(len(content))
	attachment := &types.Attachment{
		ID:        uuid.NewString(),
		Filename:  filename,
		SizeBytes: &size,
		CreatedAt: s.now(),
	}
	if contentType != "" {
		attachment.ContentType = &contentType
	}
	memory.Attachments = append(memory.Attachments, attachment)
	memory.UpdatedAt = attachment.CreatedAt
	s.files[attachment.ID] = content
	return attachment
}

func (s *Server) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memory := s.findMemory(chi.URLParam(r, "memoryID"))
	if memory == nil {
		writeDetail(w, http.StatusNotFound, "Memory not found")
		return
	}
	attachmentID := chi.URLParam(r, "attachmentID")
	for _, attachment := range memory.Attachments {
		if attachment.ID != attachmentID {
			continue
		}
		if attachment.ContentType != nil {
			w.Header().Set("Content-Type", *attachment.ContentType)
		}
		w.Write(s.files[attachmentID])
		return
	}
	writeDetail(w, http.StatusNotFound, "Attachment not found")
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	req := &types.ChatRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	s.chats = append(s.chats, req)
	handler := s.chatHandler
	var used []string
	for _, id := range req.MemoryIDs {
		if s.findMemory(id) != nil {
			used = append(used, id)
		}
	}
	s.mu.Unlock()

	if handler != nil {
		writeJSON(w, http.StatusOK, handler(req))
		return
	}
	writeJSON(w, http.StatusOK, &types.ChatResponse{
		Reply:         "echo: " + req.Message,
		UsedMemoryIDs: used,
	})
}
