package session

import "github.com/pkg/errors"

// Role identifies which side of the platform a principal belongs to.
type Role string

const (
	// RoleAspirant is an exam-preparation student browsing and enrolling in courses.
	RoleAspirant Role = "aspirant"
	// RoleInstitution is a course-providing institution managing its catalog.
	RoleInstitution Role = "institution"
	// RoleAdmin is a platform administrator moderating the marketplace.
	RoleAdmin Role = "admin"
)

// ParseRole validates a raw role string from user input or a remote response.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAspirant, RoleInstitution, RoleAdmin:
		return Role(raw), nil
	}
	return "", errors.Wrapf(UnknownRoleErr, "%q", raw)
}

func (r Role) String() string {
	return string(r)
}
