package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"gorm.io/gorm"
)

type BranchRepo struct {
	db *DbDao
}

func NewBranchRepo(db *DbDao) *BranchRepo {
	return &BranchRepo{db: db}
}

// GetFirstAvailable 建立時間最早的分店
func (r *BranchRepo) GetFirstAvailable(ctx context.Context) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").First(&branch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.Infra("get first branch", err)
	}
	return &branch, nil
}

func (r *BranchRepo) GetByID(ctx context.Context, id string) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("branch %s", id), err)
	}
	return &branch, nil
}

func (r *BranchRepo) GetByName(ctx context.Context, name string) (*model.Branch, error) {
	var branch model.Branch
	err := r.db.WithContext(ctx).First(&branch, "name = ?", name).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("branch %s", name), err)
	}
	return &branch, nil
}

func (r *BranchRepo) Create(ctx context.Context, branch *model.Branch) error {
	return translateError("create branch", r.db.WithContext(ctx).Create(branch).Error)
}

func (r *BranchRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Branch{})
	if res.Error != nil {
		return model.Infra("delete branch", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("branch %s", id)
	}
	return nil
}

var _ repository.IBranchRepository = (*BranchRepo)(nil)
