package service

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
)

type IUserService interface {
	CreateUser(ctx context.Context, username, email, phone string, role model.UserRole) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByNumber(ctx context.Context, userNumber int) (*model.User, error)
	DeleteUser(ctx context.Context, userNumber int) error
}

type UserService struct {
	uow repository.IUnitOfWork
}

func NewUserService(uow repository.IUnitOfWork) *UserService {
	if uow == nil {
		panic("user service dependency uow is nil")
	}
	return &UserService{uow: uow}
}

// CreateUser username/email 重複時回傳 ErrInvalidState
func (s *UserService) CreateUser(ctx context.Context, username, email, phone string, role model.UserRole) (*model.User, error) {
	user, err := model.NewUser(username, email, phone, role)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.uow.Users().GetByID(ctx, id)
}

func (s *UserService) GetUserByNumber(ctx context.Context, userNumber int) (*model.User, error) {
	return s.uow.Users().GetByNumber(ctx, userNumber)
}

// DeleteUser 已有訂單的使用者不可刪除
func (s *UserService) DeleteUser(ctx context.Context, userNumber int) error {
	return s.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		user, err := tx.Users().GetByNumber(ctx, userNumber)
		if err != nil {
			return err
		}
		referenced, err := tx.Orders().ExistsByCustomer(ctx, user.ID)
		if err != nil {
			return err
		}
		if referenced {
			return model.InvalidState("user %d has existing orders", userNumber)
		}
		return tx.Users().Delete(ctx, user.ID)
	})
}

var _ IUserService = (*UserService)(nil)
