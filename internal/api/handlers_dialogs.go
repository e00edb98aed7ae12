package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nkovalenko/tutorchat/internal/prompt"
	"github.com/nkovalenko/tutorchat/internal/storage"
)

// handleCreateDialog starts a new tutoring conversation. The multipart
// form carries the task text and optional task/solution images.
func (s *Server) handleCreateDialog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	cfg := s.cfg.Get()
	conversationID := storage.NewID()

	var taskImage, solutionImage string
	if hasUpload(r, "task_image") || hasUpload(r, "solution_image") {
		dir, err := s.store.UploadDir(conversationID)
		if err != nil {
			s.log.Error("creating upload dir", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
		taskImage, _, err = saveUploadedFile(r, "task_image", dir, "task")
		if err != nil {
			s.log.Error("saving task image", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
		solutionImage, _, err = saveUploadedFile(r, "solution_image", dir, "solution")
		if err != nil {
			s.log.Error("saving solution image", "error", err)
			jsonError(w, "failed to store uploads", http.StatusInternalServerError)
			return
		}
	}

	conv := &storage.Conversation{
		ID:             conversationID,
		PromptTemplate: cfg.Prompts.Dialog,
		Task:           r.FormValue("task"),
		TaskImage:      taskImage,
		SolutionImage:  solutionImage,
	}
	if err := s.store.CreateConversation(conv); err != nil {
		s.log.Error("creating conversation", "error", err)
		jsonError(w, "failed to create conversation", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation_id": conv.ID,
		"conversation":    conv,
	})
}

// handleGetDialog returns the full conversation state.
func (s *Server) handleGetDialog(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.LoadConversation(chi.URLParam(r, "conversationID"))
	if err != nil {
		s.respondConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// handleGetMessages returns the turns of a conversation.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.ListMessages(chi.URLParam(r, "conversationID"))
	if err != nil {
		s.respondConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

// handlePostMessage appends a student message, asks the model for the
// tutor reply, and stores both turns.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var payload struct {
		Message string `json:"message"`
		Role    string `json:"role"`
	}
	if err := decodeJSON(r, &payload); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	content := strings.TrimSpace(payload.Message)
	if content == "" {
		jsonError(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}
	role := payload.Role
	if role == "" {
		role = "user"
	}

	if _, err := s.store.AppendMessage(conversationID, role, content); err != nil {
		s.respondConversationError(w, err)
		return
	}
	conv, err := s.store.LoadConversation(conversationID)
	if err != nil {
		s.respondConversationError(w, err)
		return
	}

	rendered, err := prompt.Render(conv.PromptTemplate, map[string]string{
		"task":           conv.Task,
		"task_image":     conv.TaskImage,
		"solution_image": conv.SolutionImage,
		"dialogue_turns": prompt.FormatDialogueTurns(conv.Messages),
	})
	if err != nil {
		s.log.Error("rendering dialog prompt", "error", err)
		jsonError(w, "failed to render prompt template", http.StatusInternalServerError)
		return
	}

	client := s.llmClient()
	defer client.Close()
	reply := client.GenerateReply(r.Context(), rendered, conversationImages(conv))
	assistantTurn, err := s.store.AppendMessage(conversationID, "assistant", reply)
	if err != nil {
		s.respondConversationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_message":      map[string]string{"role": role, "content": content},
		"assistant_message": assistantTurn,
	})
}

// handleListConversations returns metadata for every stored conversation.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	metas, err := s.store.ListConversationMetadata()
	if err != nil {
		s.log.Error("listing conversations", "error", err)
		jsonError(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": metas})
}

// handleExportConversation returns the full conversation for download.
func (s *Server) handleExportConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.LoadConversation(chi.URLParam(r, "conversationID"))
	if err != nil {
		s.respondConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation": conv})
}

func (s *Server) respondConversationError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrConversationNotFound) {
		jsonError(w, "Conversation not found", http.StatusNotFound)
		return
	}
	s.log.Error("conversation access failed", "error", err)
	jsonError(w, "failed to access conversation", http.StatusInternalServerError)
}

// conversationImages collects the image paths attached to a conversation.
func conversationImages(conv *storage.Conversation) []string {
	var images []string
	for _, path := range []string{conv.TaskImage, conv.SolutionImage} {
		if path != "" {
			images = append(images, path)
		}
	}
	return images
}

// hasUpload reports whether a multipart file field is present.
func hasUpload(r *http.Request, field string) bool {
	if r.MultipartForm == nil {
		return false
	}
	return len(r.MultipartForm.File[field]) > 0
}
