package domain

import (
	"context"
	"time"
)

// Story is a long-form page whose body is an ordered list of content blocks.
type Story struct {
	ID        string    `json:"id" bson:"_id"`
	Title     string    `json:"title" bson:"title"`
	Slug      string    `json:"slug" bson:"slug"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StoryState is a story together with its committed blocks, sorted by order.
type StoryState struct {
	Story  Story          `json:"story"`
	Blocks []ContentBlock `json:"blocks"`
}

type StoryStore interface {
	CreateStory(ctx context.Context, s *Story) error
	GetStory(ctx context.Context, id string) (*Story, error)
	GetStoryBySlug(ctx context.Context, slug string) (*Story, error)
	ListStories(ctx context.Context) ([]Story, error)
	UpdateStory(ctx context.Context, s *Story) error
	DeleteStory(ctx context.Context, id string) error

	ListBlocks(ctx context.Context, storyID string) ([]ContentBlock, error)
	// ReplaceBlocks swaps the whole block list of a story in one step.
	ReplaceBlocks(ctx context.Context, storyID string, blocks []ContentBlock) error

	Close() error
}
