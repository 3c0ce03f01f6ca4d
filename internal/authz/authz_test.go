package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursereq/internal/domain"
	domainerrors "coursereq/pkg/domain-errors"
)

var comp = domain.CourseID{Code: "COMP1023", Term: "2510"}

func enrolled(role domain.Role, sections ...string) domain.User {
	return domain.User{
		Email: "u@ust.hk",
		Enrollment: []domain.Enrollment{
			{Course: comp, Role: role, Sections: sections},
		},
	}
}

func TestRequireCourseRole(t *testing.T) {
	instructor := enrolled(domain.RoleInstructor, "L1")

	t.Run("allows any section", func(t *testing.T) {
		err := RequireCourseRole(instructor, comp, []domain.Role{domain.RoleInstructor}, "updating sections")
		assert.NoError(t, err)
	})

	t.Run("rejects missing role with forbidden", func(t *testing.T) {
		student := enrolled(domain.RoleStudent, "L1")
		err := RequireCourseRole(student, comp, []domain.Role{domain.RoleInstructor}, "updating sections")
		require.Error(t, err)
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
		assert.Contains(t, err.Error(), "updating sections")
		assert.Contains(t, err.Error(), "u@ust.hk")
	})
}

func TestRequireClassRole(t *testing.T) {
	ta := enrolled(domain.RoleTA, "T1")

	t.Run("section must match", func(t *testing.T) {
		err := RequireClassRole(ta, domain.Class{Course: comp, Section: "T1"}, []domain.Role{domain.RoleTA}, "viewing students")
		assert.NoError(t, err)

		err = RequireClassRole(ta, domain.Class{Course: comp, Section: "T2"}, []domain.Role{domain.RoleTA}, "viewing students")
		assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	t.Run("any allowed role suffices", func(t *testing.T) {
		err := RequireClassRole(ta, domain.Class{Course: comp, Section: "T1"},
			[]domain.Role{domain.RoleInstructor, domain.RoleTA}, "viewing students")
		assert.NoError(t, err)
	})
}

func TestRequireClassEnrollment(t *testing.T) {
	student := enrolled(domain.RoleStudent, "L1")

	assert.NoError(t, RequireClassEnrollment(student, domain.Class{Course: comp, Section: "L1"}))

	err := RequireClassEnrollment(student, domain.Class{Course: comp, Section: "L2"})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeForbidden))
	assert.Contains(t, err.Error(), "is not enrolled in the class")
}

func TestDefaultViewPolicy(t *testing.T) {
	policy := DefaultViewPolicy()

	viewers, ok := policy.AllowedViewers(domain.RoleStudent)
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.Role{domain.RoleInstructor, domain.RoleTA}, viewers)

	viewers, ok = policy.AllowedViewers(domain.RoleInstructor)
	require.True(t, ok)
	assert.ElementsMatch(t, []domain.Role{domain.RoleStudent, domain.RoleInstructor, domain.RoleTA}, viewers)
}
