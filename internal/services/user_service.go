package services

import (
	"context"
	"errors"

	"availability-service/internal/models"
	"availability-service/internal/store"
)

var ErrUserNotFound = errors.New("user not found")

// UserService reads and writes profile documents, including the
// free-now flag the friends view projects.
type UserService struct {
	store store.Store
}

func NewUserService(st store.Store) *UserService {
	return &UserService{store: st}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	doc, err := s.store.Get(ctx, models.UsersCollection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := doc.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	docs, err := s.store.Query(ctx, models.UsersCollection, store.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrUserNotFound
	}
	var user models.User
	if err := docs[0].Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveProfile upserts the user's profile under their identity id.
func (s *UserService) SaveProfile(ctx context.Context, user models.User) error {
	return s.store.Set(ctx, models.UsersCollection, user.ID, user)
}

// SetFreeNow toggles the live "free now" flag.
func (s *UserService) SetFreeNow(ctx context.Context, id string, free bool) error {
	err := s.store.Update(ctx, models.UsersCollection, id, store.Filter{"free_now": free})
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
