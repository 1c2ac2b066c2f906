package repository

import (
	"context"

	"contentBackend/internal/store"
	"contentBackend/models"
)

type ArticleRepository struct {
	store store.Store
}

func NewArticleRepository(s store.Store) *ArticleRepository {
	return &ArticleRepository{store: s}
}

// List returns every article in insertion order.
func (r *ArticleRepository) List(ctx context.Context) ([]models.Article, error) {
	return store.LoadAll[models.Article](ctx, r.store, store.Articles)
}

// ReplaceAll rewrites the whole articles collection.
func (r *ArticleRepository) ReplaceAll(ctx context.Context, articles []models.Article) error {
	return store.SaveAll(ctx, r.store, store.Articles, articles)
}

// IndexOf returns the position of the first article whose id matches raw
// under loose comparison, or -1. Articles without an integral id never match.
func IndexOf(articles []models.Article, raw string) int {
	id, ok := models.ParseArticleID(raw)
	if !ok {
		return -1
	}
	for i := range articles {
		if articles[i].HasID() && articles[i].ID == id {
			return i
		}
	}
	return -1
}
