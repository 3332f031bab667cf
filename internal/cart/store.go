package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	// Get returns the user's cart, or an empty one if none is stored.
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
	// ClearIfUnchanged empties the cart only if it was not saved after seen.
	ClearIfUnchanged(ctx context.Context, userID string, seen time.Time) (bool, error)
}

// MongoStore keeps one document per user in the "carts" collection.
type MongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("carts"), now: time.Now}
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique userId index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Cart
	err := s.col.FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return New(userID), nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (s *MongoStore) Save(ctx context.Context, c *Cart) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.UpdatedAt = s.stamp()
	_, err := s.col.UpdateOne(ctx,
		bson.M{"userId": c.UserID},
		bson.M{"$set": bson.M{"items": c.Items, "updatedAt": c.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.col.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []Item{}, "updatedAt": s.stamp()}},
	)
	return err
}

func (s *MongoStore) ClearIfUnchanged(ctx context.Context, userID string, seen time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.col.UpdateOne(ctx,
		bson.M{"userId": userID, "updatedAt": seen.UTC().Truncate(time.Millisecond)},
		bson.M{"$set": bson.M{"items": []Item{}, "updatedAt": s.stamp()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// stamp is truncated to the millisecond BSON dates keep.
func (s *MongoStore) stamp() time.Time { return s.now().UTC().Truncate(time.Millisecond) }
