// Package response writes the JSON envelopes shared by every API handler:
// {"data": ...} for single values, {"data": [...], "count": n} for lists and
// {"error", "message", "code"} for failures.
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SuccessResponse wraps a payload.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ListResponse wraps a list payload with its length.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// encodeFailure is written when a payload cannot be marshalled.
var encodeFailure = []byte(`{"error":"Internal Server Error","message":"failed to encode response","code":500}`)

// JSON marshals body before touching the response so a payload that fails to
// encode still yields a well-formed 500. Game state changes every poll, so
// responses are never cached.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
		status, data = http.StatusInternalServerError, encodeFailure
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func List(w http.ResponseWriter, data interface{}, count int) {
	JSON(w, http.StatusOK, ListResponse{Data: data, Count: count})
}

// Error writes err under the given status. A nil err yields only the status text.
func Error(w http.ResponseWriter, status int, err error) {
	body := ErrorResponse{Error: http.StatusText(status), Code: status}
	if err != nil {
		body.Message = err.Error()
	}
	JSON(w, status, body)
}

func BadRequest(w http.ResponseWriter, err error)         { Error(w, http.StatusBadRequest, err) }
func NotFound(w http.ResponseWriter, err error)           { Error(w, http.StatusNotFound, err) }
func InternalError(w http.ResponseWriter, err error)      { Error(w, http.StatusInternalServerError, err) }
func ServiceUnavailable(w http.ResponseWriter, err error) { Error(w, http.StatusServiceUnavailable, err) }
