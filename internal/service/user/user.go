package user

import (
	"context"
	"fmt"

	"github.com/nortbank/backoffice/internal/idgen"
	"github.com/nortbank/backoffice/internal/models"
	"github.com/nortbank/backoffice/internal/repository"
	"github.com/nortbank/backoffice/internal/service/auth"
)

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

func (s *UserService) CreateUser(ctx context.Context, username string, password string) (models.User, error) {
	var user models.User

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	id, err := idgen.NewUserID()
	if err != nil {
		return user, err
	}

	user, err = s.storage.User().CreateUser(ctx, id, username, hash)
	if err != nil {
		return user, err
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}
