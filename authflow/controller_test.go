package authflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/civilshq/civilshq-go/authflow"
	"github.com/civilshq/civilshq-go/civilsapi"
	"github.com/civilshq/civilshq-go/gateway"
	apperrors "github.com/civilshq/civilshq-go/internal/errors"
	"github.com/civilshq/civilshq-go/session"
	fakestorage "github.com/civilshq/civilshq-go/session/storefakes"
	"github.com/civilshq/civilshq-go/viewgate"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testPassword = "pw123"
)

// stubAPI is a configurable stand-in for the remote platform API.
type stubAPI struct {
	mu sync.Mutex

	loginResp   civilsapi.AuthResponse
	loginStatus int
	signupResp  civilsapi.AuthResponse
	sendResp    civilsapi.StatusResponse
	verifyResp  civilsapi.StatusResponse

	loginCalls  int
	signupCalls int
	sendCalls   int
	verifyCalls int
}

func newStubAPI() *stubAPI {
	return &stubAPI{
		loginStatus: http.StatusOK,
		sendResp:    civilsapi.StatusResponse{Success: true},
		verifyResp:  civilsapi.StatusResponse{Success: true},
	}
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loginCalls++
		w.WriteHeader(s.loginStatus)
		json.NewEncoder(w).Encode(s.loginResp)
	})
	mux.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.signupCalls++
		json.NewEncoder(w).Encode(s.signupResp)
	})
	mux.HandleFunc("/api/auth/send-otp", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.sendCalls++
		json.NewEncoder(w).Encode(s.sendResp)
	})
	mux.HandleFunc("/api/auth/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.verifyCalls++
		json.NewEncoder(w).Encode(s.verifyResp)
	})
	return mux
}

func (s *stubAPI) calls() (login, signup, send, verify int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginCalls, s.signupCalls, s.sendCalls, s.verifyCalls
}

type testConfig struct{ baseURL string }

func (c testConfig) GetEnv() string             { return "DEV" }
func (c testConfig) GetAppName() string         { return "test" }
func (c testConfig) GetAPIBaseURL() string      { return c.baseURL }
func (c testConfig) GetHTTPTimeoutSeconds() int { return 5 }
func (c testConfig) GetDataFolder() string      { return "" }
func (c testConfig) GetSessionHashKey() []byte  { return nil }
func (c testConfig) GetSessionBlockKey() []byte { return nil }

// testFixture holds all test dependencies
type testFixture struct {
	api         *stubAPI
	store       *session.Store
	resolver    *viewgate.Resolver
	controller  *authflow.Controller
	navigations []string
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		api: newStubAPI(),
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	server := httptest.NewServer(f.api.handler())
	t.Cleanup(server.Close)

	store, err := session.NewStore(fakestorage.NewFakeStorage())
	require.NoError(t, err)
	f.store = store

	gw, err := gateway.New(testConfig{baseURL: server.URL}, store)
	require.NoError(t, err)

	resolver, err := viewgate.NewResolver(store)
	require.NoError(t, err)
	f.resolver = resolver

	controller, err := authflow.NewController(gw, store, resolver,
		authflow.WithNowTime(func() time.Time { return f.now }),
		authflow.WithNavigator(func(destination string) {
			f.navigations = append(f.navigations, destination)
		}),
	)
	require.NoError(t, err)
	f.controller = controller

	return f
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestController_LoginSuccess(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "aspirant", UserID: "U1"}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleAspirant)
	require.NoError(t, err)
	require.Equal(t, authflow.StateSuccess, attempt.State)

	current := f.store.Get()
	require.Equal(t, "T", current.Token)
	require.Equal(t, session.RoleAspirant, current.Role)
	require.Equal(t, "U1", current.UserID)

	require.Equal(t, viewgate.RouteAspirantDashboard, attempt.Destination)
	require.Equal(t, []string{viewgate.RouteAspirantDashboard}, f.navigations)
}

func TestController_LoginDeactivatedAccount(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: false, IsDeactivated: true, Message: "your account has been deactivated by an administrator"}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleAspirant)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrAccountState)
	require.Equal(t, authflow.StateFailed, attempt.State)
	require.Equal(t, "your account has been deactivated by an administrator", attempt.FailureMessage)
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.navigations)
}

func TestController_LoginValidation(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("malformed email", func(t *testing.T) {
		_, err := f.controller.Login(context.Background(), "not-an-email", testPassword, session.RoleAspirant)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("missing password", func(t *testing.T) {
		_, err := f.controller.Login(context.Background(), testEmail, "", session.RoleAspirant)
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.controller.Login(context.Background(), testEmail, testPassword, session.Role("moderator"))
		require.ErrorIs(t, err, apperrors.ErrValidation)
	})

	// Advisory validation never reaches the server.
	login, _, _, _ := f.api.calls()
	require.Zero(t, login)
}

func TestController_LoginFailurePreservesServerMessage(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: false, Message: "password incorrect for this account"}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleAspirant)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrAuthentication)
	require.Equal(t, "password incorrect for this account", attempt.FailureMessage)
}

func TestController_RoleMismatchClearsSession(t *testing.T) {
	f := setupTestFixture(t)

	// An unauthenticated visit to the admin dashboard sets up the gate.
	decision := f.resolver.Resolve(viewgate.RouteAdminDashboard)
	require.Equal(t, viewgate.DecisionLoginRedirect, decision.Kind)

	// The account that then logs in is an aspirant.
	f.api.loginResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "aspirant", UserID: "U1"}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleAspirant)
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrAuthorization)
	require.Contains(t, err.Error(), "admin")
	require.Contains(t, err.Error(), "aspirant")
	require.Equal(t, authflow.StateFailed, attempt.State)

	// The freshly established session is cleared, not left half-usable.
	require.False(t, f.store.IsAuthenticated())
	require.Empty(t, f.navigations)
}

func TestController_PendingDestinationSurvivesLogin(t *testing.T) {
	f := setupTestFixture(t)

	f.resolver.Resolve(viewgate.RouteInstitutionCourses)
	f.api.loginResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "institution", UserID: "I1"}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleInstitution)
	require.NoError(t, err)
	require.Equal(t, authflow.StateSuccess, attempt.State)

	// The user lands on the destination they originally asked for, not the
	// default dashboard.
	require.Equal(t, viewgate.RouteInstitutionCourses, attempt.Destination)
	require.Equal(t, []string{viewgate.RouteInstitutionCourses}, f.navigations)
}

func TestController_ResendCooldown(t *testing.T) {
	f := setupTestFixture(t)
	f.api.signupResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "institution", UserID: "I1"}

	attempt, err := f.controller.Signup(context.Background(), civilsapi.SignupRequest{
		Name:     "Prep Academy",
		Email:    testEmail,
		Password: testPassword,
		Role:     "institution",
		InstitutionProfile: &civilsapi.InstitutionProfile{
			InstitutionName: "Prep Academy",
			Address:         "12 MG Road",
			City:            "Pune",
			State:           "MH",
		},
	})
	require.NoError(t, err)
	require.Equal(t, authflow.StatePendingVerification, attempt.State)
	require.Equal(t, authflow.OTPCodeSent, attempt.OTPStatus)

	_, _, send, _ := f.api.calls()
	require.Equal(t, 1, send)

	t.Run("immediate resend rejected", func(t *testing.T) {
		err := f.controller.SendVerificationCode(context.Background())
		require.ErrorIs(t, err, apperrors.ErrResendCooldown)
		require.Positive(t, f.controller.ResendCooldownRemaining())

		_, _, send, _ := f.api.calls()
		require.Equal(t, 1, send)
	})

	t.Run("resend allowed after cooldown elapses", func(t *testing.T) {
		f.advance(61 * time.Second)
		require.Zero(t, f.controller.ResendCooldownRemaining())

		require.NoError(t, f.controller.SendVerificationCode(context.Background()))
		_, _, send, _ := f.api.calls()
		require.Equal(t, 2, send)
	})
}

func TestController_InstitutionSignupGatedUntilVerified(t *testing.T) {
	f := setupTestFixture(t)
	f.api.signupResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "institution", UserID: "I1"}

	attempt, err := f.controller.Signup(context.Background(), civilsapi.SignupRequest{
		Name:     "Prep Academy",
		Email:    testEmail,
		Password: testPassword,
		Role:     "institution",
		InstitutionProfile: &civilsapi.InstitutionProfile{
			InstitutionName: "Prep Academy",
			Address:         "12 MG Road",
			City:            "Pune",
			State:           "MH",
		},
	})
	require.NoError(t, err)
	require.Equal(t, authflow.StatePendingVerification, attempt.State)

	// Nothing reaches the signup endpoint until the code is verified.
	_, signup, _, _ := f.api.calls()
	require.Zero(t, signup)

	attempt, err = f.controller.VerifyCode(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, authflow.OTPVerified, attempt.OTPStatus)
	require.Equal(t, authflow.StateSuccess, attempt.State)

	_, signup, _, verify := f.api.calls()
	require.Equal(t, 1, signup)
	require.Equal(t, 1, verify)
	require.True(t, f.store.HasRole(session.RoleInstitution))
	require.Equal(t, viewgate.RouteInstitutionDashboard, attempt.Destination)
}

func TestController_AspirantSignupNotGated(t *testing.T) {
	f := setupTestFixture(t)
	f.api.signupResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "aspirant", UserID: "U1"}

	attempt, err := f.controller.Signup(context.Background(), civilsapi.SignupRequest{
		Name:     "Asha",
		Email:    testEmail,
		Password: testPassword,
		Role:     "aspirant",
	})
	require.NoError(t, err)
	require.Equal(t, authflow.StateSuccess, attempt.State)

	_, signup, send, _ := f.api.calls()
	require.Equal(t, 1, signup)
	require.Zero(t, send)
}

func TestController_OTPPolicyConfigurable(t *testing.T) {
	f := setupTestFixture(t)
	f.api.signupResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "aspirant", UserID: "U1"}

	server := httptest.NewServer(f.api.handler())
	t.Cleanup(server.Close)

	gw, err := gateway.New(testConfig{baseURL: server.URL}, f.store)
	require.NoError(t, err)

	controller, err := authflow.NewController(gw, f.store, f.resolver,
		authflow.WithOTPPolicy(authflow.OTPPolicy{session.RoleAspirant: true}),
		authflow.WithNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)

	attempt, err := controller.Signup(context.Background(), civilsapi.SignupRequest{
		Name:     "Asha",
		Email:    testEmail,
		Password: testPassword,
		Role:     "aspirant",
	})
	require.NoError(t, err)
	require.Equal(t, authflow.StatePendingVerification, attempt.State)
}

func TestController_ServerRequiresVerificationOnLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: false, RequiresVerification: true}

	attempt, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleInstitution)
	require.NoError(t, err)
	require.Equal(t, authflow.StatePendingVerification, attempt.State)
	require.Equal(t, authflow.OTPCodeSent, attempt.OTPStatus)

	// Once the code verifies, the held login resumes and completes.
	f.api.mu.Lock()
	f.api.loginResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "institution", UserID: "I1"}
	f.api.mu.Unlock()

	attempt, err = f.controller.VerifyCode(context.Background(), "654321")
	require.NoError(t, err)
	require.Equal(t, authflow.StateSuccess, attempt.State)
	require.True(t, f.store.HasRole(session.RoleInstitution))
}

func TestController_VerifyCodeRejectedByServer(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: false, RequiresVerification: true}
	f.api.verifyResp = civilsapi.StatusResponse{Success: false, Message: "code does not match"}

	_, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleInstitution)
	require.NoError(t, err)

	attempt, err := f.controller.VerifyCode(context.Background(), "000000")
	require.Error(t, err)
	require.ErrorIs(t, err, apperrors.ErrInvalidOTPCode)
	require.Contains(t, err.Error(), "code does not match")
	require.Equal(t, authflow.StatePendingVerification, attempt.State)
	require.NotEqual(t, authflow.OTPVerified, attempt.OTPStatus)
}

func TestController_VerifyCodeMalformedInput(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: false, RequiresVerification: true}

	_, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleInstitution)
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		_, err := f.controller.VerifyCode(context.Background(), code)
		require.ErrorIs(t, err, apperrors.ErrInvalidOTPCode)
	}

	// Malformed codes never reach the server.
	_, _, _, verify := f.api.calls()
	require.Zero(t, verify)
}

func TestController_Logout(t *testing.T) {
	f := setupTestFixture(t)
	f.api.loginResp = civilsapi.AuthResponse{Success: true, Token: "T", Role: "admin", UserID: "A1"}

	_, err := f.controller.Login(context.Background(), testEmail, testPassword, session.RoleAdmin)
	require.NoError(t, err)
	require.True(t, f.store.IsAuthenticated())

	f.controller.Logout()
	require.False(t, f.store.IsAuthenticated())
	require.Nil(t, f.controller.Current())
}
