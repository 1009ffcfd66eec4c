package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Leganyst/slotswap-platform/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("httpapi: encode response: %v", err)
	}
}

type errorBody struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// writeError переводит доменную ошибку в HTTP-статус и JSON-тело.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		log.Printf("httpapi: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    apperr.CodeInternal,
			Message: "internal error",
		})
		return
	}

	writeJSON(w, statusFor(appErr.Code), errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeForbidden, apperr.CodeNotOwner:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidSlotState,
		apperr.CodeSelfSwap,
		apperr.CodeRequestNotPending,
		apperr.CodeSlotLocked,
		apperr.CodeAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
