package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"coursereq/internal/domain"
	"coursereq/internal/store/memory"
	domainerrors "coursereq/pkg/domain-errors"
)

type UserServiceSuite struct {
	suite.Suite
	store   *memory.UserStore
	service *Service
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

var (
	comp = domain.CourseID{Code: "COMP1023", Term: "2510"}
	math = domain.CourseID{Code: "MATH1012", Term: "2510"}
)

func (s *UserServiceSuite) SetupTest() {
	s.store = memory.NewUserStore()

	var err error
	s.service, err = New(s.store)
	s.Require().NoError(err)

	s.seed("student@ust.hk", domain.Enrollment{Course: comp, Role: domain.RoleStudent, Sections: []string{"L1", "T1"}})
	s.seed("ta@ust.hk", domain.Enrollment{Course: comp, Role: domain.RoleTA, Sections: []string{"L1"}})
	s.seed("prof@ust.hk", domain.Enrollment{Course: comp, Role: domain.RoleInstructor, Sections: []string{"L1", "L2"}})
}

func (s *UserServiceSuite) seed(email string, enrollment ...domain.Enrollment) {
	ctx := context.Background()
	_, err := s.store.EnsureExists(ctx, email)
	s.Require().NoError(err)
	for _, e := range enrollment {
		s.Require().NoError(s.store.AddEnrollment(ctx, email, e))
	}
}

func (s *UserServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
	})
}

func (s *UserServiceSuite) TestSync() {
	ctx := context.Background()

	s.Run("creates the record on first login", func() {
		s.Require().NoError(s.service.Sync(ctx, "new@connect.ust.hk", "New Student"))

		u, err := s.service.CurrentUser(ctx, "new@connect.ust.hk")
		s.Require().NoError(err)
		s.Equal("new@connect.ust.hk", u.Email)
		s.Equal("New Student", u.Name)
		s.Empty(u.Enrollment)
	})

	s.Run("overwrites the name on later logins", func() {
		s.Require().NoError(s.service.Sync(ctx, "student@ust.hk", "Renamed"))

		u, err := s.service.CurrentUser(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Equal("Renamed", u.Name)
		s.Len(u.Enrollment, 1, "enrollment survives sync")
	})
}

func (s *UserServiceSuite) TestCurrentUser() {
	ctx := context.Background()

	s.Run("returns the acting user's record", func() {
		u, err := s.service.CurrentUser(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Equal("student@ust.hk", u.Email)
	})

	s.Run("unknown identity fails with not found", func() {
		_, err := s.service.CurrentUser(ctx, "dne@ust.hk")
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeNotFound))
		s.Contains(err.Error(), "User dne@ust.hk not found")
	})
}

func (s *UserServiceSuite) TestUsersFromCourse() {
	ctx := context.Background()

	s.Run("instructor sees the whole course roster", func() {
		users, err := s.service.UsersFromCourse(ctx, "prof@ust.hk", comp)
		s.Require().NoError(err)
		s.Len(users, 3)
	})

	s.Run("student is rejected", func() {
		_, err := s.service.UsersFromCourse(ctx, "student@ust.hk", comp)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	s.Run("ta is rejected", func() {
		_, err := s.service.UsersFromCourse(ctx, "ta@ust.hk", comp)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}

func (s *UserServiceSuite) TestUsersFromClass() {
	ctx := context.Background()
	l1 := domain.Class{Course: comp, Section: "L1"}

	s.Run("instructor sees students", func() {
		users, err := s.service.UsersFromClass(ctx, "prof@ust.hk", l1, domain.RoleStudent)
		s.Require().NoError(err)
		s.Len(users, 1)
		s.Equal("student@ust.hk", users[0].Email)
	})

	s.Run("ta sees students", func() {
		users, err := s.service.UsersFromClass(ctx, "ta@ust.hk", l1, domain.RoleStudent)
		s.Require().NoError(err)
		s.Len(users, 1)
	})

	s.Run("student sees instructors and tas", func() {
		instructors, err := s.service.UsersFromClass(ctx, "student@ust.hk", l1, domain.RoleInstructor)
		s.Require().NoError(err)
		s.Len(instructors, 1)

		tas, err := s.service.UsersFromClass(ctx, "student@ust.hk", l1, domain.RoleTA)
		s.Require().NoError(err)
		s.Len(tas, 1)
	})

	s.Run("student cannot see other students", func() {
		_, err := s.service.UsersFromClass(ctx, "student@ust.hk", l1, domain.RoleStudent)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	s.Run("viewer outside the section is rejected", func() {
		l3 := domain.Class{Course: comp, Section: "L3"}
		_, err := s.service.UsersFromClass(ctx, "prof@ust.hk", l3, domain.RoleStudent)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	s.Run("unknown role is a bad request", func() {
		_, err := s.service.UsersFromClass(ctx, "prof@ust.hk", l1, domain.Role("dean"))
		s.True(domainerrors.HasCode(err, domainerrors.CodeBadRequest))
	})
}

func (s *UserServiceSuite) TestCreateEnrollment() {
	ctx := context.Background()
	grant := domain.Enrollment{Course: comp, Role: domain.RoleStudent, Sections: []string{"L2"}}

	s.Run("instructor grants enrollment to a user who never logged in", func() {
		err := s.service.CreateEnrollment(ctx, "prof@ust.hk", "fresh@connect.ust.hk", grant)
		s.Require().NoError(err)

		users, err := s.service.UsersFromClass(ctx, "prof@ust.hk", domain.Class{Course: comp, Section: "L2"}, domain.RoleStudent)
		s.Require().NoError(err)
		s.Require().Len(users, 1)
		s.Equal("fresh@connect.ust.hk", users[0].Email)
	})

	s.Run("granting twice leaves a single entry", func() {
		s.Require().NoError(s.service.CreateEnrollment(ctx, "prof@ust.hk", "fresh@connect.ust.hk", grant))
		s.Require().NoError(s.service.CreateEnrollment(ctx, "prof@ust.hk", "fresh@connect.ust.hk", grant))

		users, err := s.service.UsersFromClass(ctx, "prof@ust.hk", domain.Class{Course: comp, Section: "L2"}, domain.RoleStudent)
		s.Require().NoError(err)
		s.Require().Len(users, 1)
		s.Len(users[0].Enrollment, 1)
	})

	s.Run("non-instructor is rejected", func() {
		err := s.service.CreateEnrollment(ctx, "student@ust.hk", "other@ust.hk", grant)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})

	s.Run("instructor of another course is rejected", func() {
		mathGrant := domain.Enrollment{Course: math, Role: domain.RoleStudent, Sections: []string{"L1"}}
		err := s.service.CreateEnrollment(ctx, "prof@ust.hk", "other@ust.hk", mathGrant)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}

func (s *UserServiceSuite) TestDeleteEnrollment() {
	ctx := context.Background()
	existing := domain.Enrollment{Course: comp, Role: domain.RoleStudent, Sections: []string{"L1", "T1"}}

	s.Run("removes a structurally equal entry", func() {
		s.Require().NoError(s.service.DeleteEnrollment(ctx, "prof@ust.hk", "student@ust.hk", existing))

		u, err := s.service.CurrentUser(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Empty(u.Enrollment)
	})

	s.Run("deleting a non-existent entry is a no-op", func() {
		absent := domain.Enrollment{Course: comp, Role: domain.RoleTA, Sections: []string{"T9"}}
		s.Require().NoError(s.service.DeleteEnrollment(ctx, "prof@ust.hk", "student@ust.hk", absent))

		u, err := s.service.CurrentUser(ctx, "student@ust.hk")
		s.Require().NoError(err)
		s.Len(u.Enrollment, 1, "enrollment list unchanged")
	})

	s.Run("non-instructor is rejected", func() {
		err := s.service.DeleteEnrollment(ctx, "ta@ust.hk", "student@ust.hk", existing)
		s.True(domainerrors.HasCode(err, domainerrors.CodeForbidden))
	})
}
