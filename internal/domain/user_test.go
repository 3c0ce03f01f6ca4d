package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasRole(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	math := CourseID{Code: "MATH1012", Term: "2510"}
	u := User{
		Email: "a@ust.hk",
		Enrollment: []Enrollment{
			{Course: comp, Role: RoleStudent, Sections: []string{"L1", "T1"}},
			{Course: comp, Role: RoleTA, Sections: []string{"L2"}},
		},
	}

	assert.True(t, u.HasRole(comp, RoleStudent))
	assert.True(t, u.HasRole(comp, RoleTA))
	assert.False(t, u.HasRole(comp, RoleInstructor))
	assert.False(t, u.HasRole(math, RoleStudent))
}

func TestHasClassRole(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	u := User{
		Email: "a@ust.hk",
		Enrollment: []Enrollment{
			{Course: comp, Role: RoleStudent, Sections: []string{"L1", "T1"}},
		},
	}

	assert.True(t, u.HasClassRole(Class{Course: comp, Section: "L1"}, RoleStudent))
	assert.True(t, u.HasClassRole(Class{Course: comp, Section: "T1"}, RoleStudent))
	assert.False(t, u.HasClassRole(Class{Course: comp, Section: "L2"}, RoleStudent))
	assert.False(t, u.HasClassRole(Class{Course: comp, Section: "L1"}, RoleTA))
}

func TestHasRoleToleratesDuplicateEntries(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	entry := Enrollment{Course: comp, Role: RoleStudent, Sections: []string{"L1"}}
	u := User{Email: "a@ust.hk", Enrollment: []Enrollment{entry, entry}}

	assert.True(t, u.HasRole(comp, RoleStudent))
	assert.True(t, u.HasClassRole(Class{Course: comp, Section: "L1"}, RoleStudent))
}

func TestInstructorClasses(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	math := CourseID{Code: "MATH1012", Term: "2510"}
	u := User{
		Email: "i@ust.hk",
		Enrollment: []Enrollment{
			{Course: comp, Role: RoleInstructor, Sections: []string{"L1", "L2"}},
			{Course: math, Role: RoleStudent, Sections: []string{"L1"}},
		},
	}

	assert.Equal(t, []Class{
		{Course: comp, Section: "L1"},
		{Course: comp, Section: "L2"},
	}, u.InstructorClasses())
}

func TestCourseIDsDeduplicates(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	u := User{
		Email: "a@ust.hk",
		Enrollment: []Enrollment{
			{Course: comp, Role: RoleStudent, Sections: []string{"L1"}},
			{Course: comp, Role: RoleTA, Sections: []string{"T1"}},
		},
	}

	assert.Equal(t, []CourseID{comp}, u.CourseIDs())
}

func TestEnrollmentEqual(t *testing.T) {
	comp := CourseID{Code: "COMP1023", Term: "2510"}
	a := Enrollment{Course: comp, Role: RoleStudent, Sections: []string{"L1", "T1"}}

	assert.True(t, a.Equal(Enrollment{Course: comp, Role: RoleStudent, Sections: []string{"L1", "T1"}}))
	// Section order participates in structural equality, same as the store's
	// set-add comparison.
	assert.False(t, a.Equal(Enrollment{Course: comp, Role: RoleStudent, Sections: []string{"T1", "L1"}}))
	assert.False(t, a.Equal(Enrollment{Course: comp, Role: RoleTA, Sections: []string{"L1", "T1"}}))
}
