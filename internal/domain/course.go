package domain

import (
	"fmt"
	"time"
)

// CourseID identifies an offering of a course in a specific term. The pair is
// unique across the courses collection.
type CourseID struct {
	Code string `bson:"code" json:"code" validate:"required"`
	Term string `bson:"term" json:"term" validate:"required"`
}

func (c CourseID) String() string {
	return fmt.Sprintf("%s (%s)", c.Code, c.Term)
}

// Class is a specific (course, section) pair. Roles are checked at this
// granularity for viewing and request permissions.
type Class struct {
	Course  CourseID `bson:"course" json:"course" validate:"required"`
	Section string   `bson:"section" json:"section" validate:"required"`
}

func (c Class) String() string {
	return fmt.Sprintf("%s - %s", c.Course, c.Section)
}

// ScheduleEntry is one weekday/time-range slot of a section. Day is ISO
// weekday numbering (1 = Monday .. 7 = Sunday); From/To are "HH:MM".
type ScheduleEntry struct {
	Day  int    `bson:"day" json:"day" validate:"min=1,max=7"`
	From string `bson:"from" json:"from"`
	To   string `bson:"to" json:"to"`
}

// Section holds the schedule of one section of a course.
type Section struct {
	Schedule []ScheduleEntry `bson:"schedule" json:"schedule"`
}

// Assignment is one gradeable item of a course. MaxExtension bounds how far a
// deadline-extension request may move the due date.
type Assignment struct {
	Name         string        `bson:"name" json:"name"`
	Due          time.Time     `bson:"due" json:"due"`
	MaxExtension time.Duration `bson:"maxExtension" json:"maxExtension"`
}

// Course is an offering of a course in a term. Sections, assignments and the
// effective-request-types toggle are replaced wholesale by instructor updates,
// never merged.
type Course struct {
	Code                  string                `bson:"code" json:"code" validate:"required"`
	Term                  string                `bson:"term" json:"term" validate:"required"`
	Title                 string                `bson:"title" json:"title"`
	Sections              map[string]Section    `bson:"sections" json:"sections"`
	Assignments           map[string]Assignment `bson:"assignments" json:"assignments"`
	EffectiveRequestTypes map[RequestType]bool  `bson:"effectiveRequestTypes" json:"effectiveRequestTypes"`
}

func (c Course) ID() CourseID {
	return CourseID{Code: c.Code, Term: c.Term}
}
