// Package authz holds the pure authorization guards. Guards decide over a
// user's already-loaded enrollment records and never touch the store; callers
// re-read the user per operation so checks always see current state.
package authz

import (
	"coursereq/internal/domain"
	domainerrors "coursereq/pkg/domain-errors"
)

// RequireCourseRole fails unless the user holds at least one of the allowed
// roles anywhere in the course, any section.
func RequireCourseRole(user domain.User, course domain.CourseID, allowed []domain.Role, operation string) error {
	for _, role := range allowed {
		if user.HasRole(course, role) {
			return nil
		}
	}
	return domainerrors.Newf(domainerrors.CodeForbidden,
		"User %s does not have any of the roles %s in course %s for %s",
		user.Email, roleList(allowed), course, operation)
}

// RequireClassRole fails unless the user holds at least one of the allowed
// roles in the exact class.
func RequireClassRole(user domain.User, class domain.Class, allowed []domain.Role, operation string) error {
	for _, role := range allowed {
		if user.HasClassRole(class, role) {
			return nil
		}
	}
	return domainerrors.Newf(domainerrors.CodeForbidden,
		"User %s does not have any of the roles %s in class %s for %s",
		user.Email, roleList(allowed), class, operation)
}

// RequireClassEnrollment fails when the user holds no role at all in the
// class. Distinct from RequireClassRole so callers can tell "not enrolled"
// apart from "wrong role".
func RequireClassEnrollment(user domain.User, class domain.Class) error {
	for _, role := range domain.Roles() {
		if user.HasClassRole(class, role) {
			return nil
		}
	}
	return domainerrors.Newf(domainerrors.CodeForbidden,
		"User %s is not enrolled in the class %s", user.Email, class)
}

func roleList(roles []domain.Role) string {
	s := "["
	for i, r := range roles {
		if i > 0 {
			s += ", "
		}
		s += string(r)
	}
	return s + "]"
}

// ViewPolicy maps the role being viewed to the roles a viewer must hold in
// that class. The table has drifted across deployments, so it is carried as a
// value rather than hard-coded in the user service.
type ViewPolicy map[domain.Role][]domain.Role

// DefaultViewPolicy returns the permissive table: class staff see students,
// everyone in the class sees its instructors and TAs.
func DefaultViewPolicy() ViewPolicy {
	return ViewPolicy{
		domain.RoleStudent:    {domain.RoleInstructor, domain.RoleTA},
		domain.RoleInstructor: {domain.RoleStudent, domain.RoleInstructor, domain.RoleTA},
		domain.RoleTA:         {domain.RoleStudent, domain.RoleInstructor, domain.RoleTA},
	}
}

// AllowedViewers returns the viewer roles permitted to list holders of the
// given role, or false for a role the policy does not cover.
func (p ViewPolicy) AllowedViewers(viewed domain.Role) ([]domain.Role, bool) {
	allowed, ok := p[viewed]
	return allowed, ok
}
