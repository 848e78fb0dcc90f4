package httpapi

import (
	"net/http"
)

// sendMessage handles POST /messages.
func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg, err := h.chat.SendMessage(r.Context(), req.SenderID, req.ReceiverID, req.MatchID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessage(*msg))
}

// history handles GET /messages/match/{matchId}?userId.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r, "matchId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := h.chat.GetHistory(r.Context(), matchID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMessages(msgs))
}

// deleteConversation handles DELETE /messages/conversation/{matchId}?userId.
func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r, "matchId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.chat.DeleteConversation(r.Context(), userID, matchID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// markConversationRead handles PUT /messages/match/{matchId}/read?userId.
func (h *Handler) markConversationRead(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r, "matchId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.chat.MarkAllRead(r.Context(), matchID, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// markMessageRead handles PUT /messages/{id}/read?userId.
func (h *Handler) markMessageRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.chat.MarkRead(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteMessage handles DELETE /messages/{id}?userId.
func (h *Handler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.chat.DeleteMessage(r.Context(), id, userID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
