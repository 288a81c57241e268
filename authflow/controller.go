package authflow

import (
	"context"
	"net/mail"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/gateway"
	apperrors "github.com/civilshq/civilshq-go/internal/errors"
	"github.com/civilshq/civilshq-go/session"
	"github.com/civilshq/civilshq-go/viewgate"
)

const defaultResendCooldown = 60 * time.Second

// OTPPolicy decides, per role, whether signup may finalize before the email
// is verified. The platform's observed behavior gates institutions only, but
// the requirement is configurable rather than hard-coded.
type OTPPolicy map[session.Role]bool

// DefaultOTPPolicy requires verification for institution signups only.
func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{
		session.RoleInstitution: true,
	}
}

// Requires reports whether the role must verify before signup finalizes.
func (p OTPPolicy) Requires(role session.Role) bool {
	return p[role]
}

// Controller drives login, signup, OTP verification and logout sequencing.
// It owns the one in-flight Attempt; the session store and the view
// resolver carry everything that outlives an attempt.
type Controller struct {
	gw       *gateway.Client
	store    *session.Store
	resolver *viewgate.Resolver
	policy   OTPPolicy
	cooldown time.Duration
	nowTime  func() time.Time
	navigate func(destination string)

	mu      sync.Mutex
	current *Attempt
}

// ControllerOption defines a function type to modify the Controller instance.
type ControllerOption func(*Controller)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowTime = nowFunc
	}
}

// WithOTPPolicy overrides which roles must verify before signup finalizes.
func WithOTPPolicy(policy OTPPolicy) ControllerOption {
	return func(c *Controller) {
		c.policy = policy
	}
}

// WithCooldown overrides the resend cooldown window.
func WithCooldown(cooldown time.Duration) ControllerOption {
	return func(c *Controller) {
		c.cooldown = cooldown
	}
}

// WithNavigator sets the callback invoked with the destination route after a
// successful attempt.
func WithNavigator(navigate func(destination string)) ControllerOption {
	return func(c *Controller) {
		c.navigate = navigate
	}
}

// NewController initializes a Controller with required dependencies.
// Optional configuration can be provided via options (e.g., WithNowTime for
// testing).
func NewController(
	gw *gateway.Client,
	store *session.Store,
	resolver *viewgate.Resolver,
	options ...ControllerOption,
) (*Controller, error) {
	if gw == nil {
		return nil, errors.New("[NewController] gateway client is required")
	}
	if store == nil {
		return nil, errors.New("[NewController] session store is required")
	}
	if resolver == nil {
		return nil, errors.New("[NewController] view resolver is required")
	}

	controller := &Controller{
		gw:       gw,
		store:    store,
		resolver: resolver,
		policy:   DefaultOTPPolicy(),
		cooldown: defaultResendCooldown,
		nowTime:  time.Now,
		navigate: func(string) {},
	}

	for _, opt := range options {
		opt(controller)
	}

	return controller, nil
}

// Current returns the in-flight attempt, or nil when none exists.
func (c *Controller) Current() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Login submits credentials for the chosen role. A nil error with state
// StatePendingVerification means the account must complete OTP verification
// before the login can finish; a nil error with StateSuccess means the
// session store holds the principal and navigation has happened.
func (c *Controller) Login(ctx context.Context, email, password string, role session.Role) (*Attempt, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if _, err := session.ParseRole(role.String()); err != nil {
		return nil, errors.Wrap(apperrors.ErrValidation, err.Error())
	}

	attempt := newAttempt(kindLogin, email, "", role)
	c.setCurrent(attempt)
	attempt.State = StateSubmitting

	req := civilsapi.LoginRequest{Email: email, Password: password, Role: role.String()}
	return c.submitLogin(ctx, attempt, req)
}

func (c *Controller) submitLogin(ctx context.Context, attempt *Attempt, req civilsapi.LoginRequest) (*Attempt, error) {
	var resp civilsapi.AuthResponse
	if err := c.gw.Post(ctx, "/api/auth/login", req, &resp); err != nil {
		return attempt, c.fail(attempt, err)
	}

	switch {
	case resp.IsDeactivated:
		attempt.State = StateFailed
		attempt.FailureMessage = messageOr(resp.Message, "your account has been deactivated")
		return attempt, errors.Wrap(apperrors.ErrAccountDeactivated, attempt.FailureMessage)

	case resp.RequiresVerification:
		attempt.State = StatePendingVerification
		attempt.pendingLogin = &req
		if err := c.sendCode(ctx, attempt); err != nil {
			log.Warn().Err(err).Str("email", attempt.Email).Msg("could not send verification code")
		}
		return attempt, nil

	case resp.Success:
		return attempt, c.complete(attempt, &resp)
	}

	attempt.State = StateFailed
	attempt.FailureMessage = messageOr(resp.Message, "invalid credentials")
	return attempt, errors.Wrap(apperrors.ErrInvalidCredentials, attempt.FailureMessage)
}

// Signup registers a new account. Roles gated by the OTP policy hold the
// payload and enter verification before anything is sent to the signup
// endpoint; other roles submit immediately and may still be asked to verify
// by the server.
func (c *Controller) Signup(ctx context.Context, req civilsapi.SignupRequest) (*Attempt, error) {
	role, err := session.ParseRole(req.Role)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrValidation, err.Error())
	}
	if err := validateSignup(req, role); err != nil {
		return nil, err
	}

	attempt := newAttempt(kindSignup, req.Email, req.Name, role)
	c.setCurrent(attempt)
	attempt.State = StateSubmitting

	if c.policy.Requires(role) {
		attempt.State = StatePendingVerification
		attempt.pendingSignup = &req
		if err := c.sendCode(ctx, attempt); err != nil {
			return attempt, err
		}
		return attempt, nil
	}

	return c.submitSignup(ctx, attempt, req)
}

func (c *Controller) submitSignup(ctx context.Context, attempt *Attempt, req civilsapi.SignupRequest) (*Attempt, error) {
	var resp civilsapi.AuthResponse
	if err := c.gw.Post(ctx, "/api/auth/signup", req, &resp); err != nil {
		return attempt, c.fail(attempt, err)
	}

	switch {
	case resp.RequiresVerification:
		attempt.State = StatePendingVerification
		attempt.pendingSignup = &req
		if err := c.sendCode(ctx, attempt); err != nil {
			log.Warn().Err(err).Str("email", attempt.Email).Msg("could not send verification code")
		}
		return attempt, nil

	case resp.Success:
		return attempt, c.complete(attempt, &resp)
	}

	attempt.State = StateFailed
	attempt.FailureMessage = messageOr(resp.Message, "signup failed")
	return attempt, errors.Wrap(apperrors.ErrValidation, attempt.FailureMessage)
}

// SendVerificationCode requests a fresh OTP for the in-flight attempt.
// Rejected while the previous code's cooldown has not elapsed.
func (c *Controller) SendVerificationCode(ctx context.Context) error {
	attempt := c.Current()
	if attempt == nil || attempt.State != StatePendingVerification {
		return errors.Wrap(apperrors.ErrUnsupported, "[SendVerificationCode] no attempt awaiting verification")
	}
	return c.sendCode(ctx, attempt)
}

func (c *Controller) sendCode(ctx context.Context, attempt *Attempt) error {
	now := c.nowTime()
	if now.Before(attempt.resendAfter) {
		remaining := attempt.resendAfter.Sub(now)
		return errors.Wrapf(apperrors.ErrResendCooldown, "retry in %d seconds", int(remaining.Seconds())+1)
	}

	req := civilsapi.SendOTPRequest{Email: attempt.Email, Name: attempt.Name, Role: attempt.Role.String()}
	var resp civilsapi.StatusResponse
	if err := c.gw.Post(ctx, "/api/auth/send-otp", req, &resp); err != nil {
		return errors.Wrap(err, "[Controller.sendCode]")
	}
	if !resp.Success {
		return errors.Wrap(apperrors.ErrVerificationRequired, messageOr(resp.Message, "could not send verification code"))
	}

	attempt.OTPStatus = OTPCodeSent
	attempt.resendAfter = c.nowTime().Add(c.cooldown)
	return nil
}

// ResendCooldownRemaining returns how long until another code may be sent,
// zero when resend is permitted. Drives the visible countdown.
func (c *Controller) ResendCooldownRemaining() time.Duration {
	attempt := c.Current()
	if attempt == nil {
		return 0
	}
	remaining := attempt.resendAfter.Sub(c.nowTime())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// VerifyCode submits the six digit code. The server's verdict is
// authoritative; on acceptance the held signup or login resumes and the
// attempt runs to completion.
func (c *Controller) VerifyCode(ctx context.Context, code string) (*Attempt, error) {
	attempt := c.Current()
	if attempt == nil || attempt.State != StatePendingVerification {
		return nil, errors.Wrap(apperrors.ErrUnsupported, "[VerifyCode] no attempt awaiting verification")
	}

	parsed, err := ParseOTPCode(code)
	if err != nil {
		return attempt, err
	}

	req := civilsapi.VerifyOTPRequest{Email: attempt.Email, OTP: parsed}
	var resp civilsapi.StatusResponse
	if err := c.gw.Post(ctx, "/api/auth/verify-otp", req, &resp); err != nil {
		return attempt, errors.Wrap(err, "[Controller.VerifyCode]")
	}
	if !resp.Success {
		return attempt, errors.Wrap(apperrors.ErrInvalidOTPCode, messageOr(resp.Message, "verification code rejected"))
	}

	attempt.OTPStatus = OTPVerified

	switch {
	case attempt.pendingSignup != nil:
		return c.submitSignup(ctx, attempt, *attempt.pendingSignup)
	case attempt.pendingLogin != nil:
		return c.submitLogin(ctx, attempt, *attempt.pendingLogin)
	}
	return attempt, nil
}

// Logout clears the session unconditionally and discards any in-flight
// attempt.
func (c *Controller) Logout() {
	c.store.Clear()
	c.setCurrent(nil)
}

// complete folds a successful auth response into the session store and
// resolves where to navigate. A role mismatch against the gated destination
// that initiated the login clears the just-established session and fails
// the attempt; the session is not preserved for other surfaces.
func (c *Controller) complete(attempt *Attempt, resp *civilsapi.AuthResponse) error {
	role, err := session.ParseRole(resp.Role)
	if err != nil {
		return c.fail(attempt, errors.Wrap(civilsapi.MalformedResponseErr, err.Error()))
	}

	if err := c.store.Set(resp.Token, role, resp.UserID); err != nil {
		return c.fail(attempt, err)
	}

	destination := viewgate.DefaultDashboard(role)
	if pending, required, ok := c.resolver.ConsumePending(); ok {
		if required != role {
			c.store.Clear()
			attempt.State = StateFailed
			attempt.FailureMessage = string(required) + " role required for " + pending
			return errors.Wrapf(apperrors.ErrAuthorization,
				"%s requires the %s role, but this account is %s", pending, required, role)
		}
		destination = pending
	}

	attempt.State = StateSuccess
	attempt.Destination = destination
	log.Info().
		Str("kind", string(attempt.kind)).
		Str("role", role.String()).
		Str("destination", destination).
		Msg("authenticated")
	c.navigate(destination)
	return nil
}

// fail marks the attempt failed, preserving the server's message verbatim
// when one was supplied.
func (c *Controller) fail(attempt *Attempt, err error) error {
	attempt.State = StateFailed
	if msg := civilsapi.ServerMessage(err); msg != "" {
		attempt.FailureMessage = msg
	} else if errors.Is(err, apperrors.ErrConnectivity) {
		attempt.FailureMessage = "could not reach the server, please try again"
	} else {
		attempt.FailureMessage = err.Error()
	}
	return err
}

func (c *Controller) setCurrent(attempt *Attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = attempt
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return errors.Wrap(apperrors.ErrMissingField, "email and password are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.Wrap(apperrors.ErrMalformedEmail, email)
	}
	return nil
}

func validateSignup(req civilsapi.SignupRequest, role session.Role) error {
	if req.Name == "" {
		return errors.Wrap(apperrors.ErrMissingField, "name is required")
	}
	if err := validateCredentials(req.Email, req.Password); err != nil {
		return err
	}
	if role == session.RoleInstitution {
		if req.InstitutionProfile == nil {
			return errors.Wrap(apperrors.ErrMissingField, "institution profile is required")
		}
		if req.InstitutionProfile.InstitutionName == "" {
			return errors.Wrap(apperrors.ErrMissingField, "institution name is required")
		}
	}
	return nil
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}
