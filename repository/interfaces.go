package repository

import (
	"context"

	"contentBackend/models"
)

// UserRepositoryI defines operations on the users collection.
type UserRepositoryI interface {
	List(ctx context.Context) ([]models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ReplaceAll(ctx context.Context, users []models.User) error
}

// ArticleRepositoryI defines operations on the articles collection.
type ArticleRepositoryI interface {
	List(ctx context.Context) ([]models.Article, error)
	ReplaceAll(ctx context.Context, articles []models.Article) error
}

var (
	_ UserRepositoryI    = (*UserRepository)(nil)
	_ ArticleRepositoryI = (*ArticleRepository)(nil)
)
