package httpx

import (
	"net/http"
	"strconv"

	apperrors "github.com/krishnx/vestigas/internal/errors"
)

// parseIntQueryStrict returns the integer value of a query param or the
// default when absent. A present but malformed value is a validation error;
// defaulting it would silently change the caller's request.
func parseIntQueryStrict(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.ValidationField(key, "must be an integer")
	}
	return i, nil
}

// parseFloatQuery returns the float value of a query param, nil when absent.
func parseFloatQuery(r *http.Request, key string) (*float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperrors.ValidationField(key, "must be a number")
	}
	return &f, nil
}
