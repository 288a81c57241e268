package civilsapi

import (
	"fmt"
	"net/http"

	apperrors "github.com/civilshq/civilshq-go/internal/errors"
	"github.com/pkg/errors"
)

var MalformedResponseErr = errors.New("malformed response from server")

// APIError is a non-2xx HTTP outcome carrying the server's message when it
// supplied one. It unwraps to the matching taxonomy sentinel so callers can
// branch with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return apperrors.ErrAuthentication
	case http.StatusForbidden:
		return apperrors.ErrAuthorization
	case http.StatusNotFound:
		return apperrors.ErrNotFound
	}
	return nil
}

// ErrorBody is the {message} envelope error responses carry when available.
type ErrorBody struct {
	Message string `json:"message"`
}

// ServerMessage extracts the server-provided message from an error chain,
// or returns the empty string when the failure carried none.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
