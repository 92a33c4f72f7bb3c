package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/brainpal/brainpal-backend/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	}
	WriteJSON(w, statusCode, response)
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps sentinel service errors to HTTP statuses. Unknown
// errors become 500 with a generic message so internals never leak.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrInvalidIdentifier):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrDuplicateTransaction):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrPromptNotConfigured):
		log.Error().Err(err).Msg("prompt configuration error")
		WriteInternalError(w, "service misconfigured")
	case errors.Is(err, model.ErrNoCredential):
		WriteError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, model.ErrUnparseableResponse),
		errors.Is(err, model.ErrMalformedResponse),
		isProviderError(err):
		// Upstream AI failure. Full detail stays in the log; the client
		// gets a retry hint.
		log.Error().Err(err).Msg("completion provider failure")
		WriteError(w, http.StatusBadGateway, "AI service is unavailable, please try again")
	default:
		log.Error().Err(err).Msg("unhandled service error")
		WriteInternalError(w, "internal server error")
	}
}

func isProviderError(err error) bool {
	var pe *model.ProviderError
	return errors.As(err, &pe)
}
