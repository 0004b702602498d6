package api

import (
	"encoding/json"
	"net/http"

	"quarry/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{Error: err.Error()}
	if qerr, ok := err.(*errors.QuarryError); ok {
		resp.Code = string(qerr.Code)
		resp.Details = qerr.Details
	} else {
		resp.Code = string(errors.InternalError)
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteQuarryError writes a QuarryError with automatic status code mapping
func WriteQuarryError(w http.ResponseWriter, err *errors.QuarryError) {
	WriteError(w, err, MapErrorToStatus(err.Code))
}

// MapErrorToStatus maps error codes to HTTP status codes
func MapErrorToStatus(code errors.ErrorCode) int {
	switch code {
	case errors.TreeNotFound:
		return http.StatusNotFound // 404
	case errors.IndexMissing:
		return http.StatusNotFound // 404
	case errors.SymbolNotFound:
		return http.StatusNotFound // 404
	case errors.QueryTooBroad:
		return http.StatusBadRequest // 400
	case errors.Timeout:
		return http.StatusGatewayTimeout // 504
	case errors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
