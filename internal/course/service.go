// Package course implements course lifecycle operations: administrative
// creation, enrollment-scoped reads and instructor-only mutation of sections,
// assignments and the effective-request-types toggle.
package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coursereq/internal/authz"
	"coursereq/internal/domain"
	domainerrors "coursereq/pkg/domain-errors"
	"coursereq/pkg/sentinel"
)

// Store is the persistence port for course documents.
type Store interface {
	// Insert persists a new course. Returns sentinel.ErrConflict when the
	// (code, term) pair already exists.
	Insert(ctx context.Context, course domain.Course) error

	// Find returns the course for the ID.
	Find(ctx context.Context, id domain.CourseID) (domain.Course, error)

	// FindByIDs returns the courses that exist among ids, silently skipping
	// IDs that resolve to nothing.
	FindByIDs(ctx context.Context, ids []domain.CourseID) ([]domain.Course, error)

	// SetSections overwrites the sections map wholesale.
	SetSections(ctx context.Context, id domain.CourseID, sections map[string]domain.Section) error

	// SetAssignments overwrites the assignments map wholesale.
	SetAssignments(ctx context.Context, id domain.CourseID, assignments map[string]domain.Assignment) error

	// SetEffectiveRequestTypes overwrites the request-type toggle wholesale.
	SetEffectiveRequestTypes(ctx context.Context, id domain.CourseID, types map[domain.RequestType]bool) error
}

// UserDirectory resolves acting users for authorization checks. Satisfied by
// the user store.
type UserDirectory interface {
	Find(ctx context.Context, email string) (domain.User, error)
}

// Service exposes the course operations.
type Service struct {
	store  Store
	users  UserDirectory
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, users UserDirectory, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("course store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	svc := &Service{store: store, users: users, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create persists a new course. Administrative: authorization happens out of
// band (the RPC layer gates it behind the admin token), so the core applies no
// role guard here.
func (s *Service) Create(ctx context.Context, course domain.Course) error {
	if course.Code == "" || course.Term == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "course code and term are required")
	}
	if err := s.store.Insert(ctx, course); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domainerrors.Newf(domainerrors.CodeConflict, "Course %s already exists", course.ID())
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create course")
	}
	s.logger.InfoContext(ctx, "course created", "course", course.ID().String())
	return nil
}

// Get returns the course. The acting user must hold any defined role in it.
func (s *Service) Get(ctx context.Context, actor string, id domain.CourseID) (domain.Course, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return domain.Course{}, err
	}
	if err := authz.RequireCourseRole(acting, id, domain.Roles(),
		fmt.Sprintf("viewing course %s", id)); err != nil {
		return domain.Course{}, err
	}
	return s.findCourse(ctx, id)
}

// FromEnrollment returns every course referenced by the acting user's own
// enrollment list. No role restriction: a user always sees their own courses.
// Courses referenced but since deleted are silently skipped.
func (s *Service) FromEnrollment(ctx context.Context, actor string) ([]domain.Course, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := acting.CourseIDs()
	if len(ids) == 0 {
		return []domain.Course{}, nil
	}
	courses, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list enrolled courses")
	}
	return courses, nil
}

// UpdateSections overwrites the sections map. Instructors of the course only.
func (s *Service) UpdateSections(ctx context.Context, actor string, id domain.CourseID, sections map[string]domain.Section) error {
	if err := s.requireInstructor(ctx, actor, id, fmt.Sprintf("updating sections of course %s", id)); err != nil {
		return err
	}
	return s.translateUpdate(s.store.SetSections(ctx, id, sections), id)
}

// UpdateAssignments overwrites the assignments map. Instructors of the course
// only.
func (s *Service) UpdateAssignments(ctx context.Context, actor string, id domain.CourseID, assignments map[string]domain.Assignment) error {
	if err := s.requireInstructor(ctx, actor, id, fmt.Sprintf("updating assignments of course %s", id)); err != nil {
		return err
	}
	return s.translateUpdate(s.store.SetAssignments(ctx, id, assignments), id)
}

// SetEffectiveRequestTypes overwrites the per-course request-type toggle.
// Instructors of the course only.
func (s *Service) SetEffectiveRequestTypes(ctx context.Context, actor string, id domain.CourseID, types map[domain.RequestType]bool) error {
	if err := s.requireInstructor(ctx, actor, id, fmt.Sprintf("updating request types of course %s", id)); err != nil {
		return err
	}
	return s.translateUpdate(s.store.SetEffectiveRequestTypes(ctx, id, types), id)
}

func (s *Service) requireInstructor(ctx context.Context, actor string, id domain.CourseID, operation string) error {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return err
	}
	return authz.RequireCourseRole(acting, id, []domain.Role{domain.RoleInstructor}, operation)
}

func (s *Service) translateUpdate(err error, id domain.CourseID) error {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.Newf(domainerrors.CodeNotFound, "Course %s not found", id)
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to update course")
	}
	return nil
}

func (s *Service) findCourse(ctx context.Context, id domain.CourseID) (domain.Course, error) {
	course, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Course{}, domainerrors.Newf(domainerrors.CodeNotFound, "Course %s not found", id)
		}
		return domain.Course{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load course")
	}
	return course, nil
}

func (s *Service) requireUser(ctx context.Context, email string) (domain.User, error) {
	u, err := s.users.Find(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.User{}, domainerrors.Newf(domainerrors.CodeNotFound, "User %s not found", email)
		}
		return domain.User{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load user")
	}
	return u, nil
}
