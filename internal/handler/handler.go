package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"product-service/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps inbound product payloads.
const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON object")

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful can be written.
		return
	}
}

// writeError maps err to its HTTP status and body and writes it. Server-side
// failures are logged with their full cause; client errors at debug.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	resp := MapError(err)

	event := logger.Debug()
	if resp.StatusCode >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", resp.StatusCode).
		Msg("request failed")

	writeJSON(w, resp.StatusCode, resp)
}

// decodePayload reads a JSON object body. An empty body is an empty payload.
func decodePayload(w http.ResponseWriter, r *http.Request) (model.Payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)

	var payload model.Payload
	err := dec.Decode(&payload)
	if err == nil {
		// Anything after the object makes the whole body invalid.
		if extra := dec.Decode(&json.RawMessage{}); !errors.Is(extra, io.EOF) {
			err = extra
			if err == nil {
				err = errTrailingData
			}
		}
	}
	switch {
	case err == nil:
		if payload == nil {
			payload = model.Payload{}
		}
		return payload, nil
	case errors.Is(err, io.EOF):
		return model.Payload{}, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil, model.NewValidationError([]model.Violation{
			{Field: "body", Reason: "must be a JSON object"},
		})
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return nil, model.NewValidationError([]model.Violation{
			{Field: "body", Reason: "request body too large"},
		})
	}

	return nil, model.NewValidationError([]model.Violation{
		{Field: "body", Reason: "invalid JSON"},
	})
}
