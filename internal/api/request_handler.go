package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursereq/internal/domain"
	"coursereq/internal/platform/metrics"
	"coursereq/internal/request"
	"coursereq/pkg/requestcontext"
)

// RequestService is the slice of the request operations the RPC layer needs.
type RequestService interface {
	Create(ctx context.Context, actor string, input request.CreateInput) (string, error)
	Get(ctx context.Context, id string) (domain.Request, error)
	ForUser(ctx context.Context, actor string) ([]domain.Request, error)
	ForCourse(ctx context.Context, actor string, course domain.CourseID) ([]domain.Request, error)
	Respond(ctx context.Context, actor, requestID string, input request.ResponseInput) error
}

// RequestHandler wires the request endpoints to the request service.
type RequestHandler struct {
	service RequestService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewRequestHandler(service RequestService, logger *slog.Logger, m *metrics.Metrics) *RequestHandler {
	return &RequestHandler{service: service, logger: logger, metrics: m}
}

// Register mounts the request endpoints on the router.
func (h *RequestHandler) Register(r chi.Router) {
	r.Post("/requests", h.handleCreateRequest)
	r.Get("/requests", h.handleListRequests)
	r.Get("/requests/{id}", h.handleGetRequest)
	r.Post("/requests/{id}/response", h.handleCreateResponse)
	r.Get("/course/requests", h.handleCourseRequests)
}

func (h *RequestHandler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	input, err := Decode[request.CreateInput](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	id, err := h.service.Create(ctx, actor, input)
	if err != nil {
		WriteError(w, err)
		return
	}
	h.metrics.RequestsCreated.WithLabelValues(string(input.Type)).Inc()
	h.logger.InfoContext(ctx, "request filed",
		"request_id", requestcontext.RequestID(ctx),
		"id", id,
		"type", string(input.Type),
		"actor", actor,
	)
	WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *RequestHandler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	requests, err := h.service.ForUser(ctx, actor)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := caller(w, ctx); !ok {
		return
	}
	req, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handleCourseRequests(w http.ResponseWriter, r *http.Request) {
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
	requests, err := h.service.ForCourse(ctx, actor, course)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) handleCreateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := caller(w, ctx)
	if !ok {
		return
	}
	requestID := chi.URLParam(r, "id")
	input, err := Decode[request.ResponseInput](r)
	if err != nil {
		WriteError(w, err)
		return
	}
	if err := h.service.Respond(ctx, actor, requestID, input); err != nil {
		WriteError(w, err)
		return
	}
	h.metrics.ResponsesCreated.WithLabelValues(string(input.Decision)).Inc()
	h.logger.InfoContext(ctx, "response filed",
		"request_id", requestcontext.RequestID(ctx),
		"id", requestID,
		"decision", string(input.Decision),
		"actor", actor,
	)
	WriteJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}
