package handler

import (
	"encoding/json"
	"net/http"

	"mini-shop/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("code", code).Int("status", status).Msg(message)
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps a service error to an HTTP response. Domain errors
// carry stable codes; anything else is an internal failure.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if de, ok := model.AsDomain(err); ok {
		writeError(w, statusForCode(de.Code), de.Code, de.Message, logger)
		return
	}
	logger.Error().Err(err).Msg("internal error")
	writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error", logger)
}

// statusForCode maps domain error codes to HTTP status codes.
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeValidation, model.ErrCodeInvalidQuantity, model.ErrCodeInvalidJSON,
		model.ErrCodeAddressNotFound, model.ErrCodeSkuNotFound, model.ErrCodeCouponNotFound:
		return http.StatusBadRequest
	case model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeInsufficientStock, model.ErrCodeCouponExhausted,
		model.ErrCodeCouponDisabled, model.ErrCodeCouponNotStarted,
		model.ErrCodeCouponExpired, model.ErrCodeCouponMinAmount,
		model.ErrCodeInvalidTransition:
		return http.StatusConflict
	case model.ErrCodeTemporaryFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
