// Package mongo implements the persistence layer on a MongoDB document store.
// Uniqueness is enforced with unique indexes (users by email, courses by
// code+term); the one-shot response attachment uses a conditional
// single-document update so a concurrent second response cannot overwrite the
// first.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collUsers    = "users"
	collCourses  = "courses"
	collRequests = "requests"
)

// Conn wraps a connected client and hands out the collection-backed stores.
type Conn struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials the store and pings it to fail fast on bad configuration.
func Connect(ctx context.Context, uri, database string) (*Conn, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Conn{client: client, db: client.Database(database)}, nil
}

// EnsureIndexes declares the uniqueness constraints and the recency index used
// by request listings. Safe to call on every startup.
func (c *Conn) EnsureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users index: %w", err)
	}

	_, err = c.db.Collection(collCourses).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}, {Key: "term", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("courses index: %w", err)
	}

	_, err = c.db.Collection(collRequests).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("requests indexes: %w", err)
	}
	return nil
}

// Users returns the user store.
func (c *Conn) Users() *UserStore {
	return &UserStore{coll: c.db.Collection(collUsers)}
}

// Courses returns the course store.
func (c *Conn) Courses() *CourseStore {
	return &CourseStore{coll: c.db.Collection(collCourses)}
}

// Requests returns the request store.
func (c *Conn) Requests() *RequestStore {
	return &RequestStore{coll: c.db.Collection(collRequests)}
}

// Reset empties every collection. Test support; indexes survive deletion.
func (c *Conn) Reset(ctx context.Context) error {
	for _, name := range []string{collUsers, collCourses, collRequests} {
		if _, err := c.db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return fmt.Errorf("reset %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the underlying client.
func (c *Conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
