package service

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
)

type IBranchService interface {
	CreateBranch(ctx context.Context, name string) (*model.Branch, error)
	GetBranch(ctx context.Context, id string) (*model.Branch, error)
	DeleteBranch(ctx context.Context, id string) error
}

type BranchService struct {
	uow repository.IUnitOfWork
}

func NewBranchService(uow repository.IUnitOfWork) *BranchService {
	if uow == nil {
		panic("branch service dependency uow is nil")
	}
	return &BranchService{uow: uow}
}

func (s *BranchService) CreateBranch(ctx context.Context, name string) (*model.Branch, error) {
	branch, err := model.NewBranch(name)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Branches().Create(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

func (s *BranchService) GetBranch(ctx context.Context, id string) (*model.Branch, error) {
	return s.uow.Branches().GetByID(ctx, id)
}

// DeleteBranch 已有訂單指派的分店不可刪除
func (s *BranchService) DeleteBranch(ctx context.Context, id string) error {
	return s.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		if _, err := tx.Branches().GetByID(ctx, id); err != nil {
			return err
		}
		referenced, err := tx.Orders().ExistsByBranch(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return model.InvalidState("branch %s is referenced by existing orders", id)
		}
		return tx.Branches().Delete(ctx, id)
	})
}

var _ IBranchService = (*BranchService)(nil)
