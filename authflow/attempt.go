package authflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/session"
)

// AttemptState tracks a login/signup attempt through its lifecycle.
type AttemptState string

const (
	StateIdle                AttemptState = "idle"
	StateSubmitting          AttemptState = "submitting"
	StateSuccess             AttemptState = "success"
	StateFailed              AttemptState = "failed"
	StatePendingVerification AttemptState = "pending-verification"
)

// OTPStatus tracks the verification sub-flow within an attempt.
type OTPStatus string

const (
	OTPUnverified OTPStatus = "unverified"
	OTPCodeSent   OTPStatus = "code-sent"
	OTPVerified   OTPStatus = "verified"
)

type attemptKind string

const (
	kindLogin  attemptKind = "login"
	kindSignup attemptKind = "signup"
)

// Attempt is a transient, in-memory record of one in-flight login or signup
// sequence. It is never persisted; a completed attempt folds into the
// session store and a cancelled one is simply discarded.
type Attempt struct {
	ID             string
	State          AttemptState
	Role           session.Role
	Email          string
	Name           string
	OTPStatus      OTPStatus
	FailureMessage string // Server message verbatim when one was supplied
	Destination    string // Where a successful attempt navigated to

	resendAfter   time.Time
	pendingLogin  *civilsapi.LoginRequest
	pendingSignup *civilsapi.SignupRequest

	kind attemptKind
}

func newAttempt(kind attemptKind, email, name string, role session.Role) *Attempt {
	return &Attempt{
		ID:        uuid.New().String(),
		State:     StateIdle,
		Role:      role,
		Email:     email,
		Name:      name,
		OTPStatus: OTPUnverified,
		kind:      kind,
	}
}

// Terminal reports whether the attempt has finished, successfully or not.
func (a *Attempt) Terminal() bool {
	return a.State == StateSuccess || a.State == StateFailed
}
