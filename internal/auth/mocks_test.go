package auth

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/task-service/internal/domain"
)

// fakeUserRepo is an in-memory stand-in for the credential store.
type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{byEmail: make(map[string]*domain.User)}
	for _, user := range users {
		repo.byEmail[user.Email] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.byEmail[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if user, ok := r.byEmail[email]; ok {
		return user, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetFirstByRole(_ context.Context, role domain.UserRole) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.UserRole) ([]domain.User, error) {
	var users []domain.User
	for _, user := range r.byEmail {
		if user.Role == role {
			users = append(users, *user)
		}
	}
	return users, nil
}
