package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

// CourseStore persists course documents in the courses collection, keyed by
// the unique (code, term) pair.
type CourseStore struct {
	coll *mongo.Collection
}

func (s *CourseStore) Insert(ctx context.Context, course domain.Course) error {
	_, err := s.coll.InsertOne(ctx, course)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

func (s *CourseStore) Find(ctx context.Context, id domain.CourseID) (domain.Course, error) {
	var course domain.Course
	err := s.coll.FindOne(ctx, bson.M{"code": id.Code, "term": id.Term}).Decode(&course)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Course{}, sentinel.ErrNotFound
		}
		return domain.Course{}, fmt.Errorf("find course: %w", err)
	}
	return course, nil
}

func (s *CourseStore) FindByIDs(ctx context.Context, ids []domain.CourseID) ([]domain.Course, error) {
	// $or rejects an empty clause list, so guard it here; missing courses are
	// simply absent from the result.
	if len(ids) == 0 {
		return []domain.Course{}, nil
	}
	clauses := make(bson.A, 0, len(ids))
	for _, id := range ids {
		clauses = append(clauses, bson.M{"code": id.Code, "term": id.Term})
	}
	cur, err := s.coll.Find(ctx, bson.M{"$or": clauses})
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	var courses []domain.Course
	if err := cur.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return courses, nil
}

func (s *CourseStore) SetSections(ctx context.Context, id domain.CourseID, sections map[string]domain.Section) error {
	return s.set(ctx, id, bson.M{"sections": sections})
}

func (s *CourseStore) SetAssignments(ctx context.Context, id domain.CourseID, assignments map[string]domain.Assignment) error {
	return s.set(ctx, id, bson.M{"assignments": assignments})
}

func (s *CourseStore) SetEffectiveRequestTypes(ctx context.Context, id domain.CourseID, types map[domain.RequestType]bool) error {
	return s.set(ctx, id, bson.M{"effectiveRequestTypes": types})
}

func (s *CourseStore) set(ctx context.Context, id domain.CourseID, fields bson.M) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"code": id.Code, "term": id.Term},
		bson.M{"$set": fields},
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
