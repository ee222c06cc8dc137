package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

// StoryStore implements domain.StoryStore on a relational database.
type StoryStore struct {
	db *DB
}

func NewStoryStore(db *DB) *StoryStore {
	return &StoryStore{db: db}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *StoryStore) CreateStory(ctx context.Context, st *domain.Story) error {
	t := now()
	st.CreatedAt = t
	st.UpdatedAt = t
	_, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`INSERT INTO stories (id, title, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		st.ID, st.Title, st.Slug, st.CreatedAt, st.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (s *StoryStore) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	return s.getStory(ctx, `SELECT id, title, slug, created_at, updated_at FROM stories WHERE id = ?`, id)
}

func (s *StoryStore) GetStoryBySlug(ctx context.Context, slug string) (*domain.Story, error) {
	return s.getStory(ctx, `SELECT id, title, slug, created_at, updated_at FROM stories WHERE slug = ?`, slug)
}

func (s *StoryStore) getStory(ctx context.Context, query, arg string) (*domain.Story, error) {
	st := &domain.Story{}
	err := s.db.conn.QueryRowContext(ctx, s.db.rebind(query), arg).
		Scan(&st.ID, &st.Title, &st.Slug, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	return st, nil
}

func (s *StoryStore) ListStories(ctx context.Context) ([]domain.Story, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, title, slug, created_at, updated_at FROM stories ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []domain.Story
	for rows.Next() {
		var st domain.Story
		if err := rows.Scan(&st.ID, &st.Title, &st.Slug, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

func (s *StoryStore) UpdateStory(ctx context.Context, st *domain.Story) error {
	st.UpdatedAt = now()
	res, err := s.db.conn.ExecContext(ctx, s.db.rebind(
		`UPDATE stories SET title = ?, slug = ?, updated_at = ? WHERE id = ?`),
		st.Title, st.Slug, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return requireRow(res, st.ID)
}

func (s *StoryStore) DeleteStory(ctx context.Context, id string) error {
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM content_blocks WHERE story_id = ?`), id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM stories WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListBlocks returns the story's blocks sorted with dense orders.
func (s *StoryStore) ListBlocks(ctx context.Context, storyID string) ([]domain.ContentBlock, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.rebind(
		`SELECT id, type, content, sort_order, heading_level, image_url, image_alt
		 FROM content_blocks WHERE story_id = ? ORDER BY sort_order, id`),
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var out []domain.ContentBlock
	for rows.Next() {
		var (
			b     domain.ContentBlock
			level sql.NullInt64
			url   sql.NullString
			alt   sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Type, &b.Content, &b.Order, &level, &url, &alt); err != nil {
			return nil, err
		}
		if level.Valid {
			b.HeadingLevel = domain.IntPtr(int(level.Int64))
		}
		if url.Valid {
			b.ImageURL = domain.StringPtr(url.String)
		}
		if alt.Valid {
			b.ImageAlt = domain.StringPtr(alt.String)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks.Normalize(out), nil
}

// ReplaceBlocks atomically replaces every block of a story and bumps its
// updated_at. Orders are normalized before writing.
func (s *StoryStore) ReplaceBlocks(ctx context.Context, storyID string, bs []domain.ContentBlock) error {
	bs = blocks.Normalize(bs)

	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.db.rebind(`UPDATE stories SET updated_at = ? WHERE id = ?`), now(), storyID)
	if err != nil {
		return fmt.Errorf("touch story: %w", err)
	}
	if err := requireRow(res, storyID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, s.db.rebind(`DELETE FROM content_blocks WHERE story_id = ?`), storyID); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	insert := s.db.rebind(
		`INSERT INTO content_blocks (story_id, id, type, content, sort_order, heading_level, image_url, image_alt)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, b := range bs {
		_, err := tx.ExecContext(ctx, insert,
			storyID, b.ID, string(b.Type), b.Content, b.Order,
			nullInt(b.HeadingLevel), nullString(b.ImageURL), nullString(b.ImageAlt),
		)
		if err != nil {
			return fmt.Errorf("insert block %s: %w", b.ID, err)
		}
	}

	return tx.Commit()
}

func (s *StoryStore) Close() error {
	return s.db.Close()
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
