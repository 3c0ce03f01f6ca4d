package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

// RequestStore keeps request documents keyed by ID.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]domain.Request
}

func NewRequestStore() *RequestStore {
	return &RequestStore{requests: make(map[string]domain.Request)}
}

func (s *RequestStore) Insert(_ context.Context, req domain.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = cloneRequest(req)
	return nil
}

func (s *RequestStore) Find(_ context.Context, id string) (domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return domain.Request{}, sentinel.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *RequestStore) ListVisibleTo(_ context.Context, email string, classes []domain.Class) ([]domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Request
	for _, req := range s.requests {
		if req.From == email || slices.Contains(classes, req.Class) {
			out = append(out, cloneRequest(req))
		}
	}
	sortByRecency(out)
	return out, nil
}

func (s *RequestStore) ListByCourse(_ context.Context, course domain.CourseID) ([]domain.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Request
	for _, req := range s.requests {
		if req.Class.Course == course {
			out = append(out, cloneRequest(req))
		}
	}
	sortByRecency(out)
	return out, nil
}

// AttachResponse performs the conditional update under the store lock, the
// in-memory counterpart of the mongo filter on a null response field.
func (s *RequestStore) AttachResponse(_ context.Context, id string, response domain.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if req.Response != nil {
		return sentinel.ErrInvalidState
	}
	resp := response
	req.Response = &resp
	s.requests[id] = req
	return nil
}

func cloneRequest(r domain.Request) domain.Request {
	out := r
	out.Details.Proof = slices.Clone(r.Details.Proof)
	if r.Response != nil {
		resp := *r.Response
		out.Response = &resp
	}
	if r.Swap != nil {
		swap := *r.Swap
		out.Swap = &swap
	}
	if r.Extension != nil {
		ext := *r.Extension
		out.Extension = &ext
	}
	return out
}

func sortByRecency(requests []domain.Request) {
	slices.SortFunc(requests, func(a, b domain.Request) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
