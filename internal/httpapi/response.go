package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/logger"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps err to its HTTP status and a {code, message} body.
// Internal failures are logged and their detail is hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := svcErr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Ctx(r.Context(), nil).ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:    svcErr.KindOf(err).Code(),
		Message: svcErr.PublicMessage(err),
	}})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return svcErr.Validation("body", "malformed JSON")
	}
	return nil
}

// queryID parses a required positive integer query parameter.
func queryID(r *http.Request, name string) (uint64, error) {
	return parseID(r.URL.Query().Get(name), name)
}

// pathID parses a positive integer route variable.
func pathID(r *http.Request, name string) (uint64, error) {
	return parseID(mux.Vars(r)[name], name)
}

func parseID(raw, name string) (uint64, error) {
	if raw == "" {
		return 0, svcErr.Validation(name, "is required")
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.Validation(name, "must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; absent yields def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, svcErr.Validation(name, "must be an integer")
	}
	return n, nil
}

// optionalInt parses an optional integer query parameter; absent yields nil.
func optionalInt(r *http.Request, name string) (*int, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	n, err := queryInt(r, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optionalString(r *http.Request, name string) *string {
	if v := r.URL.Query().Get(name); v != "" {
		return &v
	}
	return nil
}
