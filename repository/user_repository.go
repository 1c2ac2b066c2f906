package repository

import (
	"context"

	"contentBackend/internal/store"
	"contentBackend/models"
)

type UserRepository struct {
	store store.Store
}

func NewUserRepository(s store.Store) *UserRepository {
	return &UserRepository{store: s}
}

// List returns every user in stored order.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	return store.LoadAll[models.User](ctx, r.store, store.Users)
}

// GetByUsername returns the user with exactly this username, or nil when
// there is none. The match is case-sensitive.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// ReplaceAll rewrites the whole users collection.
func (r *UserRepository) ReplaceAll(ctx context.Context, users []models.User) error {
	return store.SaveAll(ctx, r.store, store.Users, users)
}
