package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	stderrors "novaport-mcp/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	stderrors.AsStandard(err).WriteHTTP(w)
}

func decodeBody(req *http.Request, out interface{}) error {
	dec := json.NewDecoder(req.Body)
	if err := dec.Decode(out); err != nil {
		return stderrors.NewValidation("body", "malformed JSON: "+err.Error(), nil)
	}
	return nil
}

// pathID parses the {id} route parameter.
func pathID(req *http.Request) (int64, error) {
	raw := chi.URLParam(req, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, stderrors.NewValidation("id", "must be an integer", raw)
	}
	return id, nil
}

func queryInt(req *http.Request, key string) int {
	n, err := strconv.Atoi(req.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func queryTime(req *http.Request, key string) (*time.Time, error) {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, stderrors.NewValidation(key, "must be an RFC 3339 timestamp", raw)
	}
	return &t, nil
}
