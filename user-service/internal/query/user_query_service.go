package query

import (
	"context"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/eaglebank/ledger/user-service/internal/repository"
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserView, error)
	List(ctx context.Context, filter repository.UserFilter, q listing.Query) ([]models.UserView, int, error)
}

// CredentialReader loads the write model, which is the only place the password hash lives.
type CredentialReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// UserQueryService reads user views from the Redis cache (with a Postgres fallback).
type UserQueryService struct {
	readRepo    UserReader
	credentials CredentialReader
}

func NewUserQueryService(readRepo UserReader, credentials CredentialReader) *UserQueryService {
	return &UserQueryService{readRepo: readRepo, credentials: credentials}
}

func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.UserView, error) {
	return s.readRepo.GetByID(ctx, q.UserID)
}

// VerifyPassword gates destructive account operations on the current password.
func (s *UserQueryService) VerifyPassword(ctx context.Context, q cqrs.VerifyPasswordQuery) error {
	user, err := s.credentials.GetByID(ctx, q.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(q.Password, user.PasswordHash) {
		return errs.ErrIncorrectPassword
	}
	return nil
}

func (s *UserQueryService) ListUsers(ctx context.Context, q cqrs.ListUsersQuery) (*listing.Page[models.UserView], error) {
	page, err := repository.UserSortFields.Normalize(q.Page)
	if err != nil {
		return nil, err
	}
	views, total, err := s.readRepo.List(ctx, repository.UserFilter{Email: q.Email, Search: q.Search}, page)
	if err != nil {
		return nil, err
	}
	return listing.NewPage(views, total, page), nil
}
