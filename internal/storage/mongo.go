package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

const storiesCollection = "stories"

// storyDoc is one story with its blocks embedded, so a block list is
// replaced with a single document update.
type storyDoc struct {
	domain.Story `bson:",inline"`
	Blocks       []domain.ContentBlock `bson:"blocks"`
}

// MongoStoryStore implements domain.StoryStore on MongoDB.
type MongoStoryStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri, pings the server and ensures the slug index.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStoryStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStoryStore{client: client, coll: client.Database(database).Collection(storiesCollection)}
	_, err = s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("create slug index: %w", err)
	}
	return s, nil
}

var withoutBlocks = bson.M{"blocks": 0}

func (s *MongoStoryStore) CreateStory(ctx context.Context, st *domain.Story) error {
	t := now()
	st.CreatedAt = t
	st.UpdatedAt = t
	if _, err := s.coll.InsertOne(ctx, storyDoc{Story: *st, Blocks: []domain.ContentBlock{}}); err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (s *MongoStoryStore) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id)
}

func (s *MongoStoryStore) GetStoryBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	return s.findOne(ctx, bson.M{"slug": slug}, slug)
}

func (s *MongoStoryStore) findOne(ctx context.Context, filter bson.M, key string) (*domain.Story, error) {
	var doc storyDoc
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetProjection(withoutBlocks)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("story %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return &doc.Story, nil
}

func (s *MongoStoryStore) ListStories(ctx context.Context) ([]domain.Story, error) {
	opts := options.Find().
		SetProjection(withoutBlocks).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	var docs []storyDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode stories: %w", err)
	}
	out := make([]domain.Story, len(docs))
	for i, d := range docs {
		out[i] = d.Story
	}
	return out, nil
}

func (s *MongoStoryStore) UpdateStory(ctx context.Context, st *domain.Story) error {
	st.UpdatedAt = now()
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": st.ID}, bson.M{"$set": bson.M{
		"title":     st.Title,
		"slug":      st.Slug,
		"updatedAt": st.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("story %s: %w", st.ID, ErrNotFound)
	}
	return nil
}

func (s *MongoStoryStore) DeleteStory(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *MongoStoryStore) ListBlocks(ctx context.Context, storyID string) ([]domain.ContentBlock, error) {
	var doc storyDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": storyID}, options.FindOne().SetProjection(bson.M{"blocks": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks.Normalize(doc.Blocks), nil
}

func (s *MongoStoryStore) ReplaceBlocks(ctx context.Context, storyID string, bs []domain.ContentBlock) error {
	bs = blocks.Normalize(bs)
	if bs == nil {
		bs = []domain.ContentBlock{}
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": storyID}, bson.M{"$set": bson.M{
		"blocks":    bs,
		"updatedAt": now(),
	}})
	if err != nil {
		return fmt.Errorf("replace blocks: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}
	return nil
}

func (s *MongoStoryStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
