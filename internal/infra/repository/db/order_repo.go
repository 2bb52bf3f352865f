package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
	"gorm.io/gorm"
)

var orderSortColumns = map[sorting.Field]string{
	repository.OrderSortNumber:    "order_number",
	repository.OrderSortCreatedAt: "created_at",
	repository.OrderSortTotal:     "total_amount",
	repository.OrderSortStatus:    "status",
}

// 購物車階段只會寫入到redis，訂單在 reconciliation 後才寫入 db
type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// Add 訂單與項目一併寫入，cart_ref_id 重複時回傳 ErrDuplicated
func (r *OrderRepo) Add(ctx context.Context, order *model.Order) error {
	return translateError("create order", r.db.WithContext(ctx).Create(order).Error)
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("OrderItems").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("order %s", id), err)
	}
	return &order, nil
}

func (r *OrderRepo) GetByCartRef(ctx context.Context, cartID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Preload("OrderItems").First(&order, "cart_ref_id = ?", cartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, model.Infra("get order by cart", err)
	}
	return &order, nil
}

// UpdateStatus 訂單內容不可變，只更新狀態
func (r *OrderRepo) UpdateStatus(ctx context.Context, order *model.Order) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":     order.Status,
			"updated_at": order.UpdatedAt,
		})
	if res.Error != nil {
		return model.Infra("update order status", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("order %s", order.ID)
	}
	return nil
}

func (r *OrderRepo) GetPaged(ctx context.Context, p paging.Params, terms []sorting.Term) ([]model.Order, int64, error) {
	var (
		total  int64
		orders []model.Order
	)
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error; err != nil {
		return nil, 0, model.Infra("count orders", err)
	}

	err := applySort(r.db.WithContext(ctx).Preload("OrderItems"), terms, orderSortColumns, "id").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, model.Infra("list orders", err)
	}
	return orders, total, nil
}

func (r *OrderRepo) ExistsByProductNumber(ctx context.Context, productNumber int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Where("product_ref_number = ?", productNumber).
		Limit(1).Count(&count).Error
	if err != nil {
		return false, model.Infra("check product referenced by orders", err)
	}
	return count > 0, nil
}

func (r *OrderRepo) ExistsByBranch(ctx context.Context, branchID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("branch_ref_id = ?", branchID).
		Limit(1).Count(&count).Error
	if err != nil {
		return false, model.Infra("check branch referenced by orders", err)
	}
	return count > 0, nil
}

func (r *OrderRepo) ExistsByCustomer(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("customer_ref_id = ?", userID).
		Limit(1).Count(&count).Error
	if err != nil {
		return false, model.Infra("check user referenced by orders", err)
	}
	return count > 0, nil
}

var _ repository.IOrderRepository = (*OrderRepo)(nil)
