// Package memory holds in-memory store implementations. They back the service
// unit tests and the dev mode of the server, and mirror the semantics of the
// mongo stores: sentinel errors for factual states, set-add enrollment
// insertion, and a conditional single-document response update.
package memory

import (
	"context"
	"slices"
	"sync"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

// UserStore keeps user records keyed by email.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]domain.User)}
}

func (s *UserStore) Find(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return domain.User{}, sentinel.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) EnsureExists(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[email]; ok {
		return false, nil
	}
	s.users[email] = domain.User{Email: email, Name: "", Enrollment: []domain.Enrollment{}}
	return true, nil
}

func (s *UserStore) SetName(_ context.Context, email, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.Name = name
	s.users[email] = u
	return nil
}

func (s *UserStore) ListByCourse(_ context.Context, course domain.CourseID) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, u := range s.users {
		for _, e := range u.Enrollment {
			if e.Course == course {
				out = append(out, cloneUser(u))
				break
			}
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *UserStore) ListByClassRole(_ context.Context, class domain.Class, role domain.Role) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, u := range s.users {
		if u.HasClassRole(class, role) {
			out = append(out, cloneUser(u))
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *UserStore) AddEnrollment(_ context.Context, email string, enrollment domain.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Set-add: a structurally equal entry is not inserted twice.
	for _, e := range u.Enrollment {
		if e.Equal(enrollment) {
			return nil
		}
	}
	u.Enrollment = append(u.Enrollment, cloneEnrollment(enrollment))
	s.users[email] = u
	return nil
}

func (s *UserStore) RemoveEnrollment(_ context.Context, email string, enrollment domain.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	// Removing an entry that is not present is a no-op.
	u.Enrollment = slices.DeleteFunc(u.Enrollment, func(e domain.Enrollment) bool {
		return e.Equal(enrollment)
	})
	s.users[email] = u
	return nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	out.Enrollment = make([]domain.Enrollment, len(u.Enrollment))
	for i, e := range u.Enrollment {
		out.Enrollment[i] = cloneEnrollment(e)
	}
	return out
}

func cloneEnrollment(e domain.Enrollment) domain.Enrollment {
	out := e
	out.Sections = slices.Clone(e.Sections)
	return out
}

func sortUsers(users []domain.User) {
	slices.SortFunc(users, func(a, b domain.User) int {
		switch {
		case a.Email < b.Email:
			return -1
		case a.Email > b.Email:
			return 1
		default:
			return 0
		}
	})
}
