package memory

import (
	"context"
	"maps"
	"sync"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

// CourseStore keeps course documents keyed by (code, term).
type CourseStore struct {
	mu      sync.RWMutex
	courses map[domain.CourseID]domain.Course
}

func NewCourseStore() *CourseStore {
	return &CourseStore{courses: make(map[domain.CourseID]domain.Course)}
}

func (s *CourseStore) Insert(_ context.Context, course domain.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID()]; ok {
		return sentinel.ErrConflict
	}
	s.courses[course.ID()] = cloneCourse(course)
	return nil
}

func (s *CourseStore) Find(_ context.Context, id domain.CourseID) (domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return domain.Course{}, sentinel.ErrNotFound
	}
	return cloneCourse(course), nil
}

func (s *CourseStore) FindByIDs(_ context.Context, ids []domain.CourseID) ([]domain.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Course, 0, len(ids))
	for _, id := range ids {
		if course, ok := s.courses[id]; ok {
			out = append(out, cloneCourse(course))
		}
	}
	return out, nil
}

func (s *CourseStore) SetSections(_ context.Context, id domain.CourseID, sections map[string]domain.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	course.Sections = maps.Clone(sections)
	s.courses[id] = course
	return nil
}

func (s *CourseStore) SetAssignments(_ context.Context, id domain.CourseID, assignments map[string]domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	course.Assignments = maps.Clone(assignments)
	s.courses[id] = course
	return nil
}

func (s *CourseStore) SetEffectiveRequestTypes(_ context.Context, id domain.CourseID, types map[domain.RequestType]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	course.EffectiveRequestTypes = maps.Clone(types)
	s.courses[id] = course
	return nil
}

func cloneCourse(c domain.Course) domain.Course {
	out := c
	out.Sections = maps.Clone(c.Sections)
	out.Assignments = maps.Clone(c.Assignments)
	out.EffectiveRequestTypes = maps.Clone(c.EffectiveRequestTypes)
	return out
}
