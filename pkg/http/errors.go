package http

import (
	"encoding/json"
	"errors"
	"net/http"
)

// HTTPError carries the status code an error should be reported with.
type HTTPError struct { // nolint: revive
	code int
	err  error
}

func (e *HTTPError) Error() string {
	return e.err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.err
}

// Code returns the HTTP status code for the error.
func (e *HTTPError) Code() int {
	return e.code
}

// Error wraps err so that WriteErrorJSON reports it with code.
func Error(err error, code int) error {
	return &HTTPError{
		code: code,
		err:  err,
	}
}

// ErrorStr is like Error but takes a message instead of an error.
func ErrorStr(msg string, code int) error {
	return Error(errors.New(msg), code)
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Name    string `json:"name"`
	Message string `json:"message,omitempty"`
}

// WriteErrorJSON writes err as a JSON error response. An *HTTPError anywhere
// in err's chain selects the status code and message. Any other error is
// reported as a 500 without its message.
func WriteErrorJSON(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.code
	}
	resp := errorResponse{Error: errorBody{Name: http.StatusText(code)}}
	if code != http.StatusInternalServerError && err != nil {
		resp.Error.Message = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
