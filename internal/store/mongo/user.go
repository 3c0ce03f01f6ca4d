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

// UserStore persists user records in the users collection, keyed by the
// unique email field with the enrollment array embedded.
type UserStore struct {
	coll *mongo.Collection
}

func (s *UserStore) Find(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, sentinel.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *UserStore) EnsureExists(ctx context.Context, email string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"email":      email,
			"name":       "",
			"enrollment": bson.A{},
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}
	return res.UpsertedCount > 0, nil
}

func (s *UserStore) SetName(ctx context.Context, email, name string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"name": name}},
	)
	if err != nil {
		return fmt.Errorf("set user name: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *UserStore) ListByCourse(ctx context.Context, course domain.CourseID) ([]domain.User, error) {
	filter := bson.M{
		"enrollment": bson.M{"$elemMatch": bson.M{
			"course.code": course.Code,
			"course.term": course.Term,
		}},
	}
	return s.list(ctx, filter)
}

func (s *UserStore) ListByClassRole(ctx context.Context, class domain.Class, role domain.Role) ([]domain.User, error) {
	// "sections: <value>" matches array membership, so this finds entries
	// whose section list contains the class section.
	filter := bson.M{
		"enrollment": bson.M{"$elemMatch": bson.M{
			"course.code": class.Course.Code,
			"course.term": class.Course.Term,
			"role":        role,
			"sections":    class.Section,
		}},
	}
	return s.list(ctx, filter)
}

func (s *UserStore) AddEnrollment(ctx context.Context, email string, enrollment domain.Enrollment) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$addToSet": bson.M{"enrollment": enrollment}},
	)
	if err != nil {
		return fmt.Errorf("add enrollment: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *UserStore) RemoveEnrollment(ctx context.Context, email string, enrollment domain.Enrollment) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$pull": bson.M{"enrollment": enrollment}},
	)
	if err != nil {
		return fmt.Errorf("remove enrollment: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *UserStore) list(ctx context.Context, filter bson.M) ([]domain.User, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}
