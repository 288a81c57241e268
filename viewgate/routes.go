package viewgate

import "github.com/civilshq/civilshq-go/session"

// Route path constants
// All application destinations are defined here to ensure consistency and prevent typos
const (
	// Public routes
	RouteHome    = "/"
	RouteLogin   = "/login"
	RouteSignup  = "/signup"
	RouteCourses = "/courses"

	// Aspirant routes
	RouteAspirantDashboard   = "/dashboard/aspirant"
	RouteAspirantEnrollments = "/dashboard/aspirant/enrollments"
	RouteAspirantReviews     = "/dashboard/aspirant/reviews"

	// Institution routes
	RouteInstitutionDashboard = "/dashboard/institution"
	RouteInstitutionCourses   = "/dashboard/institution/courses"
	RouteInstitutionProfile   = "/dashboard/institution/profile"

	// Admin routes
	RouteAdminDashboard    = "/admin"
	RouteAdminReviews      = "/admin/reviews"
	RouteAdminInstitutions = "/admin/institutions"
	RouteAdminUsers        = "/admin/users"
)

// defaultRoutes maps every role-gated destination to the role it requires.
var defaultRoutes = map[string]session.Role{
	RouteAspirantDashboard:   session.RoleAspirant,
	RouteAspirantEnrollments: session.RoleAspirant,
	RouteAspirantReviews:     session.RoleAspirant,

	RouteInstitutionDashboard: session.RoleInstitution,
	RouteInstitutionCourses:   session.RoleInstitution,
	RouteInstitutionProfile:   session.RoleInstitution,

	RouteAdminDashboard:    session.RoleAdmin,
	RouteAdminReviews:      session.RoleAdmin,
	RouteAdminInstitutions: session.RoleAdmin,
	RouteAdminUsers:        session.RoleAdmin,
}

// DefaultDashboard returns the landing destination for a role.
func DefaultDashboard(role session.Role) string {
	switch role {
	case session.RoleAspirant:
		return RouteAspirantDashboard
	case session.RoleInstitution:
		return RouteInstitutionDashboard
	case session.RoleAdmin:
		return RouteAdminDashboard
	}
	return RouteHome
}
