// Package httputil provides HTTP response helpers shared by all portal
// handlers. Responses follow the gateway envelope convention: 2xx bodies
// are {"success":true,"data":...}, failures are {"success":false,"message":...}.
package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/compranal/supplier_portal/internal/errors"
)

// Envelope is the response envelope shared with the upstream gateway.
type Envelope struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteError maps err to its HTTP status and writes a failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := errors.AsServiceError(err)
	WriteJSON(w, svcErr.HTTPStatus, Envelope{
		Success: false,
		Message: svcErr.Message,
		Details: svcErr.Details,
	})
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeBody decodes a JSON request body into target, capping the body size.
func DecodeBody(r *http.Request, target interface{}, maxBytes int64) error {
	body, _, err := ReadAllWithLimit(r.Body, maxBytes)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// ReadAllWithLimit reads at most limit bytes from r and reports whether the
// input was truncated.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads at most limit bytes from r and fails if the input is
// larger than the limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("body exceeds %d byte limit", limit)
	}
	return body, nil
}
