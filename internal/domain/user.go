package domain

import "slices"

// Role is a user's function within a course section.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleTA         Role = "ta"
)

// Roles lists every defined role.
func Roles() []Role {
	return []Role{RoleStudent, RoleInstructor, RoleTA}
}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleInstructor || r == RoleTA
}

// Enrollment records one role a user holds in some sections of a course.
// Entries are only ever added and removed, never updated in place. Duplicate
// entries are possible and tolerated by readers; removal and set-add both rely
// on structural equality of the whole entry, sections order included.
type Enrollment struct {
	Course   CourseID `bson:"course" json:"course" validate:"required"`
	Role     Role     `bson:"role" json:"role" validate:"required"`
	Sections []string `bson:"sections" json:"sections" validate:"required,min=1"`
}

// Equal reports structural equality with another entry.
func (e Enrollment) Equal(other Enrollment) bool {
	return e.Course == other.Course &&
		e.Role == other.Role &&
		slices.Equal(e.Sections, other.Sections)
}

// User is keyed by email, which is also the login identity. The record is
// created lazily on first sync or when an instructor grants an enrollment.
type User struct {
	Email      string       `bson:"email" json:"email"`
	Name       string       `bson:"name" json:"name"`
	Enrollment []Enrollment `bson:"enrollment" json:"enrollment"`
}

// HasRole reports whether the user holds the role anywhere in the course,
// regardless of section.
func (u User) HasRole(course CourseID, role Role) bool {
	for _, e := range u.Enrollment {
		if e.Course == course && e.Role == role {
			return true
		}
	}
	return false
}

// HasClassRole reports whether the user holds the role in the exact class,
// i.e. the class section is among the entry's section list.
func (u User) HasClassRole(class Class, role Role) bool {
	for _, e := range u.Enrollment {
		if e.Course == class.Course && e.Role == role && slices.Contains(e.Sections, class.Section) {
			return true
		}
	}
	return false
}

// InstructorClasses expands the user's instructor enrollments into the
// individual classes they cover. Request listings use this to find the
// requests a user is responsible for.
func (u User) InstructorClasses() []Class {
	var classes []Class
	for _, e := range u.Enrollment {
		if e.Role != RoleInstructor {
			continue
		}
		for _, section := range e.Sections {
			classes = append(classes, Class{Course: e.Course, Section: section})
		}
	}
	return classes
}

// CourseIDs returns the distinct courses referenced by the user's enrollment
// list, in first-seen order.
func (u User) CourseIDs() []CourseID {
	var ids []CourseID
	for _, e := range u.Enrollment {
		if !slices.Contains(ids, e.Course) {
			ids = append(ids, e.Course)
		}
	}
	return ids
}
