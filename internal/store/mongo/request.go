package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coursereq/internal/domain"
	"coursereq/pkg/sentinel"
)

// RequestStore persists request documents in the requests collection, keyed
// by the unique generated id and indexed by creation time descending.
type RequestStore struct {
	coll *mongo.Collection
}

func (s *RequestStore) Insert(ctx context.Context, req domain.Request) error {
	_, err := s.coll.InsertOne(ctx, req)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *RequestStore) Find(ctx context.Context, id string) (domain.Request, error) {
	var req domain.Request
	err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Request{}, sentinel.ErrNotFound
		}
		return domain.Request{}, fmt.Errorf("find request: %w", err)
	}
	return req, nil
}

func (s *RequestStore) ListVisibleTo(ctx context.Context, email string, classes []domain.Class) ([]domain.Request, error) {
	clauses := bson.A{bson.M{"from": email}}
	for _, class := range classes {
		clauses = append(clauses, bson.M{
			"class.course.code": class.Course.Code,
			"class.course.term": class.Course.Term,
			"class.section":     class.Section,
		})
	}
	return s.list(ctx, bson.M{"$or": clauses})
}

func (s *RequestStore) ListByCourse(ctx context.Context, course domain.CourseID) ([]domain.Request, error) {
	return s.list(ctx, bson.M{
		"class.course.code": course.Code,
		"class.course.term": course.Term,
	})
}

// AttachResponse conditions the update on the response field still being
// null, so the first responder wins and a concurrent second attempt matches
// nothing.
func (s *RequestStore) AttachResponse(ctx context.Context, id string, response domain.Response) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"id": id, "response": nil},
		bson.M{"$set": bson.M{"response": response}},
	)
	if err != nil {
		return fmt.Errorf("attach response: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing request from an already-answered one.
		count, err := s.coll.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("attach response: %w", err)
		}
		if count == 0 {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *RequestStore) list(ctx context.Context, filter bson.M) ([]domain.Request, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "id", Value: 1}}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	var requests []domain.Request
	if err := cur.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	return requests, nil
}
