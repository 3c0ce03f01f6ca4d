package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursereq/internal/domain"
	domainerrors "coursereq/pkg/domain-errors"
	"coursereq/pkg/requestcontext"
)

// UserService is the slice of the user operations the RPC layer needs.
type UserService interface {
	CurrentUser(ctx context.Context, actor string) (domain.User, error)
	UsersFromCourse(ctx context.Context, actor string, course domain.CourseID) ([]domain.User, error)
	UsersFromClass(ctx context.Context, actor string, class domain.Class, role domain.Role) ([]domain.User, error)
	CreateEnrollment(ctx context.Context, actor, target string, enrollment domain.Enrollment) error
	DeleteEnrollment(ctx context.Context, actor, target string, enrollment domain.Enrollment) error
}

// UserHandler wires the user endpoints to the user service.
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: service, logger: logger}
}

// Register mounts the user endpoints on the router.
func (h *UserHandler) Register(r chi.Router) {
	r.Get("/user", h.handleCurrentUser)
	r.Get("/users/course", h.handleUsersFromCourse)
	r.Get("/users/class", h.handleUsersFromClass)
	r.Post("/enrollments", h.handleCreateEnrollment)
	r.Delete("/enrollments", h.handleDeleteEnrollment)
}

func (h *UserHandler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	u, err := h.service.CurrentUser(ctx, actor)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, u)
}

func (h *UserHandler) handleUsersFromCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	course, err := courseFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	users, err := h.service.UsersFromCourse(ctx, actor, course)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleUsersFromClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	course, err := courseFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	section := r.URL.Query().Get("section")
	if section == "" {
		WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "section query parameter is required"))
		return
	}
	role := domain.Role(r.URL.Query().Get("role"))
	users, err := h.service.UsersFromClass(ctx, actor,
		domain.Class{Course: course, Section: section}, role)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

type enrollmentPayload struct {
	UID        string            `json:"uid" validate:"required,email"`
	Enrollment domain.Enrollment `json:"enrollment" validate:"required"`
}

func (h *UserHandler) handleCreateEnrollment(w http.ResponseWriter, r *http.Request) {
	h.mutateEnrollment(w, r, h.service.CreateEnrollment, "enrollment created")
}

func (h *UserHandler) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	h.mutateEnrollment(w, r, h.service.DeleteEnrollment, "enrollment deleted")
}

func (h *UserHandler) mutateEnrollment(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor, target string, enrollment domain.Enrollment) error,
	event string,
) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	payload, err := Decode[enrollmentPayload](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := op(ctx, actor, payload.UID, payload.Enrollment); err != nil {
		WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, event,
		"request_id", requestcontext.RequestID(ctx),
		"actor", actor,
		"target", payload.UID,
		"course", payload.Enrollment.Course.String(),
	)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller pulls the authenticated identity set by the auth middleware.
func caller(w http.ResponseWriter, ctx context.Context) (string, bool) {
	ident := requestcontext.CallerIdentity(ctx)
	if ident.Email == "" {
		WriteError(w, domainerrors.New(domainerrors.CodeUnauthorized, "authentication required"))
		return "", false
	}
	return ident.Email, true
}

func courseFromQuery(r *http.Request) (domain.CourseID, error) {
	q := r.URL.Query()
	id := domain.CourseID{Code: q.Get("code"), Term: q.Get("term")}
	if id.Code == "" || id.Term == "" {
		return domain.CourseID{}, domainerrors.New(domainerrors.CodeBadRequest,
			"code and term query parameters are required")
	}
	return id, nil
}
