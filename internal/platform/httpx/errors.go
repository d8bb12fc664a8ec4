package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

// StatusFor maps a domain error to its HTTP status and message key.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrUserNotExist):
		return http.StatusNotFound, MsgUserNotExist
	case errors.Is(err, shared.ErrPassWordError):
		return http.StatusUnauthorized, MsgPassWordError
	case errors.Is(err, shared.ErrUserIsWrong):
		return http.StatusForbidden, MsgUserIsWrong
	case errors.Is(err, shared.ErrSessionNotFound):
		return http.StatusNotFound, MsgSessionNotFound
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest, MsgValidation
	case errors.Is(err, shared.ErrUnauthorized):
		return http.StatusUnauthorized, MsgUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, MsgForbidden
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}

// RespondError renders err as a failure envelope.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status, key := StatusFor(err)
	Fail(w, r, status, key)
}
