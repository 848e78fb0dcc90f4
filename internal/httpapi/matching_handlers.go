package httpapi

import (
	"net/http"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/suggestion"
)

// rate handles POST /matching/rate. The response never reveals whether the
// rating produced a match; that is delivered as a notification.
func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t := db.RatingType(req.Type)
	if !t.Valid() {
		writeError(w, r, svcErr.Validation("type", "must be LIKE or DISLIKE"))
		return
	}
	if _, err := h.engine.Rate(r.Context(), req.RaterID, req.RatedUserID, t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"rated": true})
}

// getSuggestions handles GET /matching/suggestions?userId&page&size[&gender&minAge&maxAge&city].
func (h *Handler) getSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	minAge, err := optionalInt(r, "minAge")
	if err != nil {
		writeError(w, r, err)
		return
	}
	maxAge, err := optionalInt(r, "maxAge")
	if err != nil {
		writeError(w, r, err)
		return
	}

	prefs := suggestion.Preferences{
		Gender: optionalString(r, "gender"),
		MinAge: minAge,
		MaxAge: maxAge,
		City:   optionalString(r, "city"),
	}
	result, err := h.suggestions.GetSuggestions(r.Context(), userID, prefs, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// likes handles GET /matching/likes?userId&token.
func (h *Handler) likes(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	likers, next, err := h.ratings.ListLikers(r.Context(), userID, optionalString(r, "token"), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"likers": likers, "nextToken": next})
}

// stats handles GET /matching/stats?userId.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	received, err := h.ratings.CountLikesReceived(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	given, err := h.ratings.CountLikesGiven(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"likesReceived": received, "likesGiven": given})
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	prefs, err := h.suggestions.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UserID == 0 {
		writeError(w, r, svcErr.Validation("userId", "is required"))
		return
	}
	saved, err := h.suggestions.SavePreferences(r.Context(), req.UserID, suggestion.Preferences{
		Gender:        req.Gender,
		MinAge:        req.MinAge,
		MaxAge:        req.MaxAge,
		City:          req.City,
		MaxDistanceKm: req.MaxDistanceKm,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// matches handles GET /matches?userId.
func (h *Handler) matches(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summaries, err := h.engine.GetActiveMatches(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]matchResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toMatch(s))
	}
	writeJSON(w, http.StatusOK, out)
}

// unmatch handles DELETE /matches/{id}/unmatch?userId.
func (h *Handler) unmatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := queryID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.engine.Unmatch(r.Context(), userID, matchID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
