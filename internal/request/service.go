// Package request implements the request lifecycle: creation by enrolled
// students, visibility queries, and the one-shot instructor response.
package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"coursereq/internal/authz"
	"coursereq/internal/domain"
	domainerrors "coursereq/pkg/domain-errors"
	"coursereq/pkg/requestcontext"
	"coursereq/pkg/sentinel"
)

// Store is the persistence port for request documents.
type Store interface {
	// Insert persists a new request.
	Insert(ctx context.Context, req domain.Request) error

	// Find returns the request with the ID.
	Find(ctx context.Context, id string) (domain.Request, error)

	// ListVisibleTo returns the union of requests filed by the email and
	// requests targeting any of the classes, deduplicated by ID and ordered by
	// creation time descending.
	ListVisibleTo(ctx context.Context, email string, classes []domain.Class) ([]domain.Request, error)

	// ListByCourse returns every request targeting the course, ordered by
	// creation time descending.
	ListByCourse(ctx context.Context, course domain.CourseID) ([]domain.Request, error)

	// AttachResponse sets the response if and only if none is set yet,
	// as a single conditional update. Returns sentinel.ErrNotFound when the
	// request does not exist and sentinel.ErrInvalidState when a response is
	// already attached.
	AttachResponse(ctx context.Context, id string, response domain.Response) error
}

// UserDirectory resolves acting users for authorization checks.
type UserDirectory interface {
	Find(ctx context.Context, email string) (domain.User, error)
}

// CourseDirectory resolves target courses for referential-integrity checks.
type CourseDirectory interface {
	Find(ctx context.Context, id domain.CourseID) (domain.Course, error)
}

// Notifier receives lifecycle events after the store mutation committed.
// Implementations must not block the caller; failures are the notifier's to
// log and swallow.
type Notifier interface {
	RequestCreated(ctx context.Context, req domain.Request)
	ResponseCreated(ctx context.Context, req domain.Request)
}

type noopNotifier struct{}

func (noopNotifier) RequestCreated(context.Context, domain.Request)  {}
func (noopNotifier) ResponseCreated(context.Context, domain.Request) {}

// CreateInput is the caller-supplied part of a new request.
type CreateInput struct {
	Type    domain.RequestType    `json:"type" validate:"required"`
	Class   domain.Class          `json:"class" validate:"required"`
	Details domain.RequestDetails `json:"details" validate:"required"`

	Swap      *domain.SwapSectionMeta       `json:"swap,omitempty"`
	Extension *domain.DeadlineExtensionMeta `json:"extension,omitempty"`
}

// ResponseInput is the caller-supplied part of a response.
type ResponseInput struct {
	Decision domain.Decision `json:"decision" validate:"required"`
	Remarks  string          `json:"remarks"`
}

// Service exposes the request operations.
type Service struct {
	store    Store
	users    UserDirectory
	courses  CourseDirectory
	notifier Notifier
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNotifier attaches a lifecycle notifier. Without one, events are dropped.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func New(store Store, users UserDirectory, courses CourseDirectory, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course directory is required")
	}
	svc := &Service{
		store:    store,
		users:    users,
		courses:  courses,
		notifier: noopNotifier{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create validates and persists a new request from the acting user, returning
// the generated request ID. The target course must exist and the acting user
// must hold the student role in the exact target class.
func (s *Service) Create(ctx context.Context, actor string, input CreateInput) (string, error) {
	if err := validateInput(input); err != nil {
		return "", err
	}

	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return "", err
	}

	course, err := s.courses.Find(ctx, input.Class.Course)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", domainerrors.Newf(domainerrors.CodeNotFound, "Course %s not found", input.Class.Course)
		}
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load course")
	}

	if err := authz.RequireClassEnrollment(acting, input.Class); err != nil {
		return "", err
	}
	if err := authz.RequireClassRole(acting, input.Class, []domain.Role{domain.RoleStudent}, "create request"); err != nil {
		return "", err
	}
	if len(course.Sections) > 0 {
		if _, ok := course.Sections[input.Class.Section]; !ok {
			return "", domainerrors.Newf(domainerrors.CodeNotFound,
				"Section %s not found in course %s", input.Class.Section, input.Class.Course)
		}
	}

	req := domain.Request{
		ID:        uuid.NewString(),
		Type:      input.Type,
		From:      actor,
		Class:     input.Class,
		Details:   input.Details,
		CreatedAt: requestcontext.Now(ctx),
		Response:  nil,
		Swap:      input.Swap,
		Extension: input.Extension,
	}
	if err := s.store.Insert(ctx, req); err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create request")
	}

	s.logger.InfoContext(ctx, "request created",
		"request_id", req.ID, "type", string(req.Type), "class", req.Class.String(), "from", actor)
	s.notifier.RequestCreated(ctx, req)
	return req.ID, nil
}

// Get returns the request with the ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Request, error) {
	return s.findRequest(ctx, id)
}

// ForUser returns the requests the acting user may see: those they filed, plus
// those targeting any class where they hold the instructor role.
func (s *Service) ForUser(ctx context.Context, actor string) ([]domain.Request, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	requests, err := s.store.ListVisibleTo(ctx, actor, acting.InstructorClasses())
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list requests")
	}
	return requests, nil
}

// ForCourse returns every request filed against the course. Instructors of the
// course only.
func (s *Service) ForCourse(ctx context.Context, actor string, course domain.CourseID) ([]domain.Request, error) {
	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireCourseRole(acting, course, []domain.Role{domain.RoleInstructor},
		fmt.Sprintf("viewing requests of course %s", course)); err != nil {
		return nil, err
	}
	requests, err := s.store.ListByCourse(ctx, course)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list course requests")
	}
	return requests, nil
}

// Respond attaches the one and only response to a request. The acting user
// must hold the instructor role in the request's class. A second response
// attempt fails with a conflict and leaves the original untouched; the store
// update is conditional on the response still being absent, closing the
// check-then-act race.
func (s *Service) Respond(ctx context.Context, actor, requestID string, input ResponseInput) error {
	if !input.Decision.Valid() {
		return domainerrors.Newf(domainerrors.CodeBadRequest, "unknown decision %q", input.Decision)
	}

	acting, err := s.requireUser(ctx, actor)
	if err != nil {
		return err
	}

	req, err := s.findRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Answered() {
		return domainerrors.Newf(domainerrors.CodeConflict, "Request %s already has a response", requestID)
	}
	if err := authz.RequireClassRole(acting, req.Class, []domain.Role{domain.RoleInstructor},
		fmt.Sprintf("create response for request %s", requestID)); err != nil {
		return err
	}

	response := domain.Response{
		From:      actor,
		Decision:  input.Decision,
		Remarks:   input.Remarks,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.AttachResponse(ctx, requestID, response); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			// Lost the race against a concurrent responder; the first response
			// stands.
			return domainerrors.Newf(domainerrors.CodeConflict, "Request %s already has a response", requestID)
		case errors.Is(err, sentinel.ErrNotFound):
			return domainerrors.Newf(domainerrors.CodeNotFound, "Request %s not found", requestID)
		default:
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create response")
		}
	}

	req.Response = &response
	s.logger.InfoContext(ctx, "response created",
		"request_id", requestID, "decision", string(input.Decision), "from", actor)
	s.notifier.ResponseCreated(ctx, req)
	return nil
}

func validateInput(input CreateInput) error {
	if !input.Type.Valid() {
		return domainerrors.Newf(domainerrors.CodeBadRequest, "unknown request type %q", input.Type)
	}
	switch input.Type {
	case domain.RequestSwapSection:
		if input.Swap == nil || input.Extension != nil {
			return domainerrors.New(domainerrors.CodeBadRequest, "swap section request requires swap metadata only")
		}
	case domain.RequestDeadlineExtension:
		if input.Extension == nil || input.Swap != nil {
			return domainerrors.New(domainerrors.CodeBadRequest, "deadline extension request requires extension metadata only")
		}
	}
	if input.Details.Reason == "" {
		return domainerrors.New(domainerrors.CodeBadRequest, "a reason is required")
	}
	return nil
}

func (s *Service) findRequest(ctx context.Context, id string) (domain.Request, error) {
	req, err := s.store.Find(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Request{}, domainerrors.Newf(domainerrors.CodeNotFound, "Request %s not found", id)
		}
		return domain.Request{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load request")
	}
	return req, nil
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
