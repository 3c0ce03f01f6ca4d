// Package user implements the user-facing half of the domain core: identity
// sync, roster queries and enrollment management, all guarded by the acting
// user's own enrollment records.
package user

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

// Store is the persistence port for user records. Implementations return
// sentinel errors for factual store states; the service translates them.
type Store interface {
	// Find returns the user record for the email.
	Find(ctx context.Context, email string) (domain.User, error)

	// EnsureExists creates a skeleton record (empty name, empty enrollment)
	// unless one already exists. Reports whether a record was created.
	EnsureExists(ctx context.Context, email string) (created bool, err error)

	// SetName overwrites the display name of an existing record.
	SetName(ctx context.Context, email, name string) error

	// ListByCourse returns every user with any enrollment entry in the course.
	ListByCourse(ctx context.Context, course domain.CourseID) ([]domain.User, error)

	// ListByClassRole returns every user holding the role in the exact class.
	ListByClassRole(ctx context.Context, class domain.Class, role domain.Role) ([]domain.User, error)

	// AddEnrollment appends an enrollment entry with set-add semantics:
	// inserting a structurally equal entry twice is a no-op.
	AddEnrollment(ctx context.Context, email string, enrollment domain.Enrollment) error

	// RemoveEnrollment removes a structurally equal entry if present; removing
	// a non-existent entry is a no-op.
	RemoveEnrollment(ctx context.Context, email string, enrollment domain.Enrollment) error
}

// Service exposes the user operations. Every call carries the acting user's
// identity explicitly; nothing is captured between calls.
type Service struct {
	store  Store
	policy authz.ViewPolicy
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithViewPolicy overrides the roster view policy.
func WithViewPolicy(policy authz.ViewPolicy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	svc := &Service{
		store:  store,
		policy: authz.DefaultViewPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Sync idempotently creates the acting user's record if absent, then
// overwrites the display name with the one asserted by the identity provider.
// This is the only self-registration path and never fails for a missing user.
func (s *Service) Sync(ctx context.Context, actor, name string) error {
	created, err := s.store.EnsureExists(ctx, actor)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to sync user")
	}
	if created {
		s.logger.InfoContext(ctx, "user record created on first sync", "user", actor)
	}
	if err := s.store.SetName(ctx, actor, name); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to sync user name")
	}
	return nil
}

// CurrentUser returns the acting user's full record.
func (s *Service) CurrentUser(ctx context.Context, actor string) (domain.User, error) {
	return s.requireUser(ctx, actor)
}

// UsersFromCourse returns everyone enrolled in the course in any role. Only
// instructors of the course may call it.
func (s *Service) UsersFromCourse(ctx context.Context, actor string, course domain.CourseID) ([]domain.User, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireCourseRole(acting, course, []domain.Role{domain.RoleInstructor},
		fmt.Sprintf("viewing users in course %s", course)); err != nil {
		return nil, err
	}
	users, err := s.store.ListByCourse(ctx, course)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list course users")
	}
	return users, nil
}

// UsersFromClass returns everyone holding the role in the class, applying the
// view policy to the acting user.
func (s *Service) UsersFromClass(ctx context.Context, actor string, class domain.Class, role domain.Role) ([]domain.User, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	viewers, ok := s.policy.AllowedViewers(role)
	if !ok {
		return nil, domainerrors.Newf(domainerrors.CodeBadRequest, "unknown role %q", role)
	}
	if err := authz.RequireClassRole(acting, class, viewers,
		fmt.Sprintf("viewing %ss in class %s", role, class)); err != nil {
		return nil, err
	}
	users, err := s.store.ListByClassRole(ctx, class, role)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list class users")
	}
	return users, nil
}

// CreateEnrollment grants the target user a role in sections of a course. The
// acting user must be an instructor of that course. The target record is
// created when absent so enrollments can be granted to users who never logged
// in.
func (s *Service) CreateEnrollment(ctx context.Context, actor, target string, enrollment domain.Enrollment) error {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return err
	}
	if err := authz.RequireCourseRole(acting, enrollment.Course, []domain.Role{domain.RoleInstructor},
		fmt.Sprintf("creating enrollment for user %s in course %s", target, enrollment.Course)); err != nil {
		return err
	}
	if _, err := s.store.EnsureExists(ctx, target); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create user record")
	}
	if err := s.store.AddEnrollment(ctx, target, enrollment); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create enrollment")
	}
	return nil
}

// DeleteEnrollment removes a structurally equal enrollment entry from the
// target user. Removing an entry that does not exist is a no-op.
func (s *Service) DeleteEnrollment(ctx context.Context, actor, target string, enrollment domain.Enrollment) error {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return err
	}
	if err := authz.RequireCourseRole(acting, enrollment.Course, []domain.Role{domain.RoleInstructor},
		fmt.Sprintf("deleting enrollment for user %s in course %s", target, enrollment.Course)); err != nil {
		return err
	}
	if err := s.store.RemoveEnrollment(ctx, target, enrollment); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete enrollment")
	}
	return nil
}

func (s *Service) requireUser(ctx context.Context, email string) (domain.User, error) {
	u, err := s.store.Find(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.User{}, domainerrors.Newf(domainerrors.CodeNotFound, "User %s not found", email)
		}
		return domain.User{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load user")
	}
	return u, nil
}
