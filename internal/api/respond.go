// Package api serves the gateway operations over HTTP. Every response, error
// or not, is a JSON envelope with a boolean success flag.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gwerrors "zerodha-roast/internal/errors"
)

const maxBodyBytes = 1 << 20

// Envelope is the body of every response.
type Envelope struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	OrderID   string      `json:"order_id,omitempty"`
	Message   string      `json:"message,omitempty"`
	History   interface{} `json:"history,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes a bounded request body into v.
func ReadJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeData(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// writeError converts any error into the failure envelope. Only the
// classified message reaches the caller; the cause chain stays in the logs.
func writeError(w http.ResponseWriter, op string, err error) {
	var gwErr *gwerrors.GatewayError
	if !gwerrors.As(err, &gwErr) {
		gwErr = gwerrors.Unexpected(op, err)
	}
	WriteJSON(w, gwErr.Kind.HTTPStatus(), Envelope{
		Success:   false,
		Error:     gwErr.Message,
		ErrorCode: string(gwErr.Kind),
		ErrorType: gwErr.ErrorType,
	})
}

// badBody reports an unparseable request body as an unexpected failure.
func badBody(w http.ResponseWriter, op string, err error) {
	writeError(w, op, gwerrors.Unexpected(op, err))
}
