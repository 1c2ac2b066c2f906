package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"contentBackend/models"
	"contentBackend/repository"
)

// Articles performs CRUD over the articles collection. Every mutation loads
// the whole collection, changes it in memory and saves it back; a lookup
// miss returns ErrNotFound without saving.
type Articles struct {
	repo   repository.ArticleRepositoryI
	logger *slog.Logger
}

func NewArticles(repo repository.ArticleRepositoryI, logger *slog.Logger) *Articles {
	if logger == nil {
		logger = slog.Default()
	}
	return &Articles{repo: repo, logger: logger}
}

// List returns all articles in insertion order.
func (s *Articles) List(ctx context.Context) ([]models.Article, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return articles, nil
}

// Get returns the first article whose id loosely equals rawID.
func (s *Articles) Get(ctx context.Context, rawID string) (*models.Article, error) {
	articles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := repository.IndexOf(articles, rawID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &articles[i], nil
}

// Create appends a new article. Its id is the last stored article's id plus
// one, or 1 for an empty collection. title and content are stored as given;
// a nil value leaves the key out.
func (s *Articles) Create(ctx context.Context, title, content json.RawMessage) (*models.Article, error) {
	articles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	id := models.ArticleID(1)
	if n := len(articles); n > 0 {
		last := articles[n-1]
		switch {
		case !last.HasID():
			return nil, fmt.Errorf("%w: last article has no numeric id to follow", ErrInvalidInput)
		case last.ID == math.MaxInt64:
			return nil, fmt.Errorf("%w: last article id %s has no successor", ErrInvalidInput, last.ID)
		}
		id = last.ID + 1
	}
	a := models.Article{ID: id, Title: title, Content: content}
	if err := s.repo.ReplaceAll(ctx, append(articles, a)); err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	s.logger.Info("article created", "id", int64(id))
	return &a, nil
}

// Update replaces title and content of the matching article. The id and any
// other stored keys are kept; a nil title or content removes that key.
func (s *Articles) Update(ctx context.Context, rawID string, title, content json.RawMessage) (*models.Article, error) {
	articles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := repository.IndexOf(articles, rawID)
	if i < 0 {
		return nil, ErrNotFound
	}
	updated := articles[i]
	updated.Title = title
	updated.Content = content
	articles[i] = updated
	if err := s.repo.ReplaceAll(ctx, articles); err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	s.logger.Info("article updated", "id", int64(updated.ID))
	return &updated, nil
}

// Delete removes the first matching article and returns it.
func (s *Articles) Delete(ctx context.Context, rawID string) (*models.Article, error) {
	articles, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := repository.IndexOf(articles, rawID)
	if i < 0 {
		return nil, ErrNotFound
	}
	removed := articles[i]
	rest := append(articles[:i:i], articles[i+1:]...)
	if err := s.repo.ReplaceAll(ctx, rest); err != nil {
		return nil, fmt.Errorf("save articles: %w", err)
	}
	s.logger.Info("article deleted", "id", int64(removed.ID))
	return &removed, nil
}
