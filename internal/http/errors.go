package httpx

import (
	"net/http"

	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// WriteAppError writes a JSON error response with the HTTP status derived
// from the application error code. Unknown errors render as 500 without
// leaking internals.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	WriteError(w, ErrorParams{
		Code:    statusForCode(code),
		ErrCode: string(code),
		Err:     err,
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeNormalization:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout, apperrors.ErrCodeTransient:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeCanceled:
		// Client went away; 499 is conventional but non-standard.
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
