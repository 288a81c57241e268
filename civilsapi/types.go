package civilsapi

// Wire types for the CivilsHQ platform API. These are the only shapes the
// client trusts, and only after Validate has accepted them; everything else
// about the remote service is opaque.

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// InstitutionProfile is the nested profile block institutions register with.
type InstitutionProfile struct {
	InstitutionName string `json:"institutionName"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Website         string `json:"website,omitempty"`
	ContactNumber   string `json:"contactNumber,omitempty"`
}

// SignupRequest is the payload for POST /api/auth/signup. Aspirant and admin
// signups are flat; institution signups carry the nested profile.
type SignupRequest struct {
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	Password           string              `json:"password"`
	Role               string              `json:"role"`
	InstitutionProfile *InstitutionProfile `json:"institutionProfile,omitempty"`
}

// AuthResponse is returned by both the login and signup endpoints.
//
// Exactly one of three outcomes applies:
//   - Success true: Token, Role and UserID carry the new principal.
//   - RequiresVerification true: the account must complete OTP verification
//     before the action finalizes.
//   - IsDeactivated true: the account exists but cannot log in.
type AuthResponse struct {
	Success              bool   `json:"success"`
	Token                string `json:"token,omitempty"`
	Role                 string `json:"role,omitempty"`
	UserID               string `json:"userId,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	IsDeactivated        bool   `json:"isDeactivated,omitempty"`
	Message              string `json:"message,omitempty"`
}

// SendOTPRequest is the payload for POST /api/auth/send-otp.
type SendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// VerifyOTPRequest is the payload for POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// StatusResponse is the minimal {success, message} envelope the OTP
// endpoints return.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Profile is the current-user record from GET /api/auth/me.
type Profile struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MeResponse wraps the current-user lookup.
type MeResponse struct {
	Data Profile `json:"data"`
}

// CourseSummary is a catalog entry on the homepage payload.
type CourseSummary struct {
	ID              string  `json:"_id"`
	Title           string  `json:"title"`
	InstitutionName string  `json:"institutionName"`
	Price           float64 `json:"price"`
}

// HomeData is the aggregate payload backing the homepage, cached client-side
// with a short TTL.
type HomeData struct {
	FeaturedCourses  []CourseSummary `json:"featuredCourses"`
	InstitutionCount int             `json:"institutionCount"`
	AspirantCount    int             `json:"aspirantCount"`
}

// HomeResponse wraps the homepage lookup.
type HomeResponse struct {
	Data HomeData `json:"data"`
}
