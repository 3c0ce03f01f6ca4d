package course

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coursereq/internal/domain"
	"coursereq/internal/store/memory"
	domainerrors "coursereq/pkg/domain-errors"
)

type CourseServiceSuite struct {
	suite.Suite
	courses *memory.CourseStore
	users   *memory.UserStore
	service *Service
}

func TestCourseServiceSuite(t *testing.T) {
	suite.Run(t, new(CourseServiceSuite))
}

var (
	comp = domain.CourseID{Code: "COMP1023", Term: "2510"}
	math = domain.CourseID{Code: "MATH1012", Term: "2510"}
)

func sampleCourse(id domain.CourseID) domain.Course {
	return domain.Course{
		Code: id.Code,
		Term: id.Term,
		Sections: map[string]domain.Section{
			"L1": {Schedule: []domain.ScheduleEntry{{Day: 1, From: "09:00", To: "10:20"}}},
			"L2": {Schedule: []domain.ScheduleEntry{{Day: 3, From: "13:30", To: "14:50"}}},
		},
		Assignments: map[string]domain.Assignment{
			"PA1": {Name: "PA1", Due: time.Date(2025, 10, 3, 23, 59, 0, 0, time.UTC), MaxExtension: 72 * time.Hour},
		},
		EffectiveRequestTypes: map[domain.RequestType]bool{
			domain.RequestSwapSection:       true,
			domain.RequestDeadlineExtension: true,
		},
	}
}

func (s *CourseServiceSuite) SetupTest() {
	s.courses = memory.NewCourseStore()
	s.users = memory.NewUserStore()

	var err error
	s.service, err = New(s.courses, s.users)
	s.Require().NoError(err)

	ctx := context.Background()
	s.Require().NoError(s.courses.Insert(ctx, sampleCourse(comp)))

	s.enroll("student@ust.hk", domain.Enrollment{Course: comp, Role: domain.RoleStudent, Sections: []string{"L1"}})
	s.enroll("prof@ust.hk", domain.Enrollment{Course: comp, Role: domain.RoleInstructor, Sections: []string{"L1", "L2"}})
	s.enroll("outsider@ust.hk")
}

func (s *CourseServiceSuite) enroll(email string, enrollment ...domain.Enrollment) {
	ctx := context.Background()
	_, err := s.users.EnsureExists(ctx, email)
	s.Require().NoError(err)
	for _, e := range enrollment {
		s.Require().NoError(s.users.AddEnrollment(ctx, email, e))
	}
}

func (s *CourseServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("round trips through get", func() {
		want := sampleCourse(math)
		s.Require().NoError(s.service.Create(ctx, want))
		s.enroll("mathprof@ust.hk", domain.Enrollment{Course: math, Role: domain.RoleInstructor, Sections: []string{"L1"}})

		got, err := s.service.Get(ctx, "mathprof@ust.hk", math)
		s.Require().NoError(err)
		s.Equal(want, got)
	})

	s.Run("duplicate code and term conflicts", func() {
		err := s.service.Create(ctx, sampleCourse(comp))
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeConflict))
		s.Contains(err.Error(), "Course COMP1023 (2510) already exists")
	})

	s.Run("missing code or term is a bad request", func() {
		err := s.service.Create(ctx, domain.Course{Term: "2510"})
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))

		err = s.service.Create(ctx, domain.Course{Code: "COMP1023"})
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})
}

func (s *CourseServiceSuite) TestGet() {
	ctx := context.Background()

	s.Run("any enrolled role may read", func() {
		got, err := s.service.Get(ctx, "student@ust.hk", comp)
		s.Require().NoError(err)
		s.Equal(sampleCourse(comp), got)
	})

	s.Run("non-enrolled user is rejected, not told it exists", func() {
		_, err := s.service.Get(ctx, "outsider@ust.hk", comp)
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	s.Run("unknown actor fails with not found", func() {
		_, err := s.service.Get(ctx, "dne@ust.hk", comp)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
	})
}

func (s *CourseServiceSuite) TestFromEnrollment() {
	ctx := context.Background()

	s.Run("returns the actor's own courses", func() {
		courses, err := s.service.FromEnrollment(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Require().Len(courses, 1)
		s.Equal(comp, courses[0].ID())
	})

	s.Run("no enrollment yields an empty list", func() {
		courses, err := s.service.FromEnrollment(ctx, "outsider@ust.hk")
		s.Require().NoError(err)
		s.Empty(courses)
	})

	s.Run("enrollment referencing a missing course is skipped", func() {
		s.Require().NoError(s.users.AddEnrollment(ctx, "student@ust.hk",
			domain.Enrollment{Course: math, Role: domain.RoleStudent, Sections: []string{"L1"}}))

		courses, err := s.service.FromEnrollment(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Require().Len(courses, 1)
		s.Equal(comp, courses[0].ID())
	})
}

func (s *CourseServiceSuite) TestUpdateSections() {
	ctx := context.Background()
	next := map[string]domain.Section{
		"L1": {Schedule: []domain.ScheduleEntry{{Day: 2, From: "10:30", To: "11:50"}}},
	}

	s.Run("instructor overwrites the map wholesale", func() {
		s.Require().NoError(s.service.UpdateSections(ctx, "prof@ust.hk", comp, next))

		got, err := s.service.Get(ctx, "prof@ust.hk", comp)
		s.Require().NoError(err)
		s.Equal(next, got.Sections)
		s.NotContains(got.Sections, "L2", "sections absent from the new map are gone")
	})

	s.Run("student is rejected", func() {
		err := s.service.UpdateSections(ctx, "student@ust.hk", comp, next)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}

func (s *CourseServiceSuite) TestUpdateAssignments() {
	ctx := context.Background()
	next := map[string]domain.Assignment{
		"PA2": {Name: "PA2", Due: time.Date(2025, 11, 7, 23, 59, 0, 0, time.UTC), MaxExtension: 48 * time.Hour},
	}

	s.Run("instructor overwrites the map wholesale", func() {
		s.Require().NoError(s.service.UpdateAssignments(ctx, "prof@ust.hk", comp, next))

		got, err := s.service.Get(ctx, "prof@ust.hk", comp)
		s.Require().NoError(err)
		s.Equal(next, got.Assignments)
		s.NotContains(got.Assignments, "PA1")
	})

	s.Run("student is rejected", func() {
		err := s.service.UpdateAssignments(ctx, "student@ust.hk", comp, next)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}

func (s *CourseServiceSuite) TestSetEffectiveRequestTypes() {
	ctx := context.Background()

	s.Run("replaces the toggle, dropping omitted keys", func() {
		next := map[domain.RequestType]bool{domain.RequestDeadlineExtension: false}
		s.Require().NoError(s.service.SetEffectiveRequestTypes(ctx, "prof@ust.hk", comp, next))

		got, err := s.service.Get(ctx, "prof@ust.hk", comp)
		s.Require().NoError(err)
		s.Equal(next, got.EffectiveRequestTypes)
		s.NotContains(got.EffectiveRequestTypes, domain.RequestSwapSection)
	})

	s.Run("student is rejected", func() {
		err := s.service.SetEffectiveRequestTypes(ctx, "student@ust.hk", comp, nil)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}
