package server

import (
	"net/http"
	"strings"

	"divai/internal/app"
	"divai/pkg/domain"
)

type chatRequest struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId"`
	Provider       string `json:"provider"`
}

type chatResponse struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversationId"`
	Cached         bool   `json:"cached"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, userID, _ string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req chatRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	ans, err := s.app.SendMessage(r.Context(), userID, app.ChatRequest{
		Text:           req.Text,
		ConversationID: req.ConversationID,
		Provider:       req.Provider,
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Text:           ans.Text,
		ConversationID: ans.ConversationID,
		Cached:         ans.Cached,
	})
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request, userID, _ string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.app.ResetHistory(userID); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "chat history reset"})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, userID, _ string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	convs, err := s.app.ListConversations(userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Conversation{"conversations": convs})
}

func (s *Server) handleConversationByID(w http.ResponseWriter, r *http.Request, userID, _ string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/conversations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	msgs, err := s.app.ConversationMessages(userID, id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Message{"messages": msgs})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, userID, _ string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	msgs, err := s.app.History(userID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Message{"history": msgs})
}
