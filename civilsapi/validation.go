package civilsapi

import (
	"github.com/pkg/errors"

	"github.com/civilshq/civilshq-go/session"
)

// Validator is implemented by response types that must be checked before the
// rest of the client may trust them. The gateway runs Validate on every
// decoded response that provides it.
type Validator interface {
	Validate() error
}

var (
	_ Validator = (*AuthResponse)(nil)
	_ Validator = (*MeResponse)(nil)
)

// Validate enforces the auth outcome contract: a successful response must
// carry a complete principal, and the role must be one the client knows.
func (r *AuthResponse) Validate() error {
	if !r.Success {
		return nil
	}
	if r.Token == "" {
		return errors.Wrap(MalformedResponseErr, "success response missing token")
	}
	if r.UserID == "" {
		return errors.Wrap(MalformedResponseErr, "success response missing userId")
	}
	if _, err := session.ParseRole(r.Role); err != nil {
		return errors.Wrap(MalformedResponseErr, err.Error())
	}
	return nil
}

// Verified reports whether the server accepted the action outright.
func (r *AuthResponse) Verified() bool {
	return r.Success && !r.RequiresVerification
}

func (r *MeResponse) Validate() error {
	if r.Data.ID == "" {
		return errors.Wrap(MalformedResponseErr, "profile missing id")
	}
	if _, err := session.ParseRole(r.Data.Role); err != nil {
		return errors.Wrap(MalformedResponseErr, err.Error())
	}
	return nil
}
