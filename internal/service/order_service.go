package service

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
)

type IOrderService interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, q ListQuery) (paging.Page[model.Order], error)
	ConfirmOrder(ctx context.Context, orderID string) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID string) (*model.Order, error)
}

// OrderService 訂單只由 reconciliation 建立，這裡只處理查詢與狀態變更
type OrderService struct {
	uow repository.IUnitOfWork
}

func NewOrderService(uow repository.IUnitOfWork) *OrderService {
	if uow == nil {
		panic("order service dependency uow is nil")
	}
	return &OrderService{uow: uow}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.uow.Orders().GetByID(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, q ListQuery) (paging.Page[model.Order], error) {
	p := q.params()
	items, total, err := s.uow.Orders().GetPaged(ctx, p, q.terms(repository.OrderSortFields, repository.OrderDefaultSort))
	if err != nil {
		return paging.Page[model.Order]{}, err
	}
	return paging.NewPage(items, total, p), nil
}

// ConfirmOrder 只有 Pending 可確認
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.transition(ctx, orderID, (*model.Order).Confirm)
}

// CancelOrder 已確認或已取消的訂單不可取消
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.transition(ctx, orderID, (*model.Order).Cancel)
}

func (s *OrderService) transition(ctx context.Context, orderID string, apply func(*model.Order) error) (*model.Order, error) {
	var order *model.Order
	err := s.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		o, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := apply(o); err != nil {
			return err
		}
		if err := tx.Orders().UpdateStatus(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

var _ IOrderService = (*OrderService)(nil)
