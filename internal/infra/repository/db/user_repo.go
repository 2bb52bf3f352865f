package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
)

type UserRepo struct {
	db *DbDao
}

func NewUserRepo(db *DbDao) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	return translateError("create user", r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("user %s", id), err)
	}
	return &user, nil
}

func (r *UserRepo) GetByNumber(ctx context.Context, userNumber int) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "user_number = ?", userNumber).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("user with number %d", userNumber), err)
	}
	return &user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("user %s", username), err)
	}
	return &user, nil
}

// Delete 軟刪除，刪除後的使用者查詢不到
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return model.Infra("delete user", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("user %s", id)
	}
	return nil
}

var _ repository.IUserRepository = (*UserRepo)(nil)
