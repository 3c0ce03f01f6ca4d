package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursereq/internal/domain"
	"coursereq/pkg/requestcontext"
)

// CourseService is the slice of the course operations the RPC layer needs.
type CourseService interface {
	Create(ctx context.Context, course domain.Course) error
	Get(ctx context.Context, actor string, id domain.CourseID) (domain.Course, error)
	FromEnrollment(ctx context.Context, actor string) ([]domain.Course, error)
	UpdateSections(ctx context.Context, actor string, id domain.CourseID, sections map[string]domain.Section) error
	UpdateAssignments(ctx context.Context, actor string, id domain.CourseID, assignments map[string]domain.Assignment) error
	SetEffectiveRequestTypes(ctx context.Context, actor string, id domain.CourseID, types map[domain.RequestType]bool) error
}

// CourseHandler wires the course endpoints to the course service.
type CourseHandler struct {
	service CourseService
	logger  *slog.Logger
}

func NewCourseHandler(service CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{service: service, logger: logger}
}

// Register mounts the authenticated course endpoints.
func (h *CourseHandler) Register(r chi.Router) {
	r.Get("/courses", h.handleCoursesFromEnrollment)
	r.Get("/course", h.handleGetCourse)
	r.Put("/course/sections", h.handleUpdateSections)
	r.Put("/course/assignments", h.handleUpdateAssignments)
	r.Put("/course/request-types", h.handleSetRequestTypes)
}

// RegisterAdmin mounts the admin-token endpoints. Kept off the bearer-auth
// router: course creation is out-of-band administration.
func (h *CourseHandler) RegisterAdmin(r chi.Router) {
	r.Post("/courses", h.handleCreateCourse)
}

func (h *CourseHandler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	course, err := Decode[domain.Course](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.service.Create(ctx, course); err != nil {
		WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "course created",
		"request_id", requestcontext.RequestID(ctx),
		"course", course.ID().String(),
	)
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *CourseHandler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	id, err := courseFromQuery(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	course, err := h.service.Get(ctx, actor, id)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, course)
}

func (h *CourseHandler) handleCoursesFromEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	courses, err := h.service.FromEnrollment(ctx, actor)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, courses)
}

type sectionsPayload struct {
	Course   domain.CourseID           `json:"course" validate:"required"`
	Sections map[string]domain.Section `json:"sections" validate:"required"`
}

func (h *CourseHandler) handleUpdateSections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	payload, err := Decode[sectionsPayload](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.service.UpdateSections(ctx, actor, payload.Course, payload.Sections); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type assignmentsPayload struct {
	Course      domain.CourseID              `json:"course" validate:"required"`
	Assignments map[string]domain.Assignment `json:"assignments" validate:"required"`
}

func (h *CourseHandler) handleUpdateAssignments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	payload, err := Decode[assignmentsPayload](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.service.UpdateAssignments(ctx, actor, payload.Course, payload.Assignments); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type requestTypesPayload struct {
	Course                domain.CourseID             `json:"course" validate:"required"`
	EffectiveRequestTypes map[domain.RequestType]bool `json:"effectiveRequestTypes" validate:"required"`
}

func (h *CourseHandler) handleSetRequestTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	payload, err := Decode[requestTypesPayload](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.service.SetEffectiveRequestTypes(ctx, actor, payload.Course, payload.EffectiveRequestTypes); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
