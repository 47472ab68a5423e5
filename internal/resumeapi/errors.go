package resumeapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRejected indicates the API refused the payload. Resending it unchanged will fail again.
	ErrRejected = errors.New("resume payload rejected")

	// ErrNotFound indicates the resume does not exist.
	ErrNotFound = errors.New("resume not found")
)

// APIError is a non-2xx response from the resumes API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resumes api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the status onto the package sentinels.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests && e.Status != http.StatusRequestTimeout:
		return ErrRejected
	default:
		return nil
	}
}

// Retryable reports whether resending the same payload later may succeed.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrRejected) && !errors.Is(err, ErrNotFound)
}
