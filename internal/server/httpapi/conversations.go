package httpapi

import "net/http"

type createConversationRequest struct {
	CounterpartID string `json:"counterpartId"`
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	conv, err := s.messaging.GetOrCreateConversation(r.Context(), userID, req.CounterpartID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.messaging.ListConversations(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	messages, err := s.messaging.History(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type appendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req appendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID := userIDFromContext(r.Context())
	msg, err := s.messaging.AppendMessage(r.Context(), r.PathValue("id"), userID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleMarkConversationRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if err := s.messaging.MarkConversationRead(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
