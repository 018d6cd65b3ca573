package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"niceblog.org/internal/auth"
	"niceblog.org/internal/blog"
)

// envelope is the uniform JSON API response shape. code carries the
// status as a string; data is "" when there is no payload.
type envelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Data  any    `json:"data"`
}

// writeEnvelope writes a success envelope with HTTP 200.
func writeEnvelope(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Error: "", Code: "200", Data: data})
}

// writeEnvelopeError writes an error envelope with the matching HTTP status.
func writeEnvelopeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Error: msg, Code: strconv.Itoa(status), Data: ""})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeEnvelopeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleServiceError maps service sentinel errors to envelope responses.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, blog.ErrInvalidInput):
		writeEnvelopeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeEnvelopeError(w, http.StatusForbidden, "invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		writeEnvelopeError(w, http.StatusForbidden, "invalid token")
	case errors.Is(err, auth.ErrForbidden):
		writeEnvelopeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrConflict), errors.Is(err, blog.ErrConflict):
		writeEnvelopeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, blog.ErrNotFound):
		writeEnvelopeError(w, http.StatusNotFound, "resource not found")
	default:
		writeEnvelopeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parsePage reads a page query parameter, defaulting to the first page.
func parsePage(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("page"))
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
