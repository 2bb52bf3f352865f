package db

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartFinalizationRepo 訂單提交與購物車 Finalized 之間的補償紀錄
type CartFinalizationRepo struct {
	db *DbDao
}

func NewCartFinalizationRepo(db *DbDao) *CartFinalizationRepo {
	return &CartFinalizationRepo{db: db}
}

func (r *CartFinalizationRepo) MarkPending(ctx context.Context, cartID, orderID string) error {
	now := time.Now().UTC()
	record := model.CartFinalization{
		CartID:    cartID,
		OrderID:   orderID,
		Status:    model.FinalizationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"order_id", "status", "updated_at"}),
	}).Create(&record).Error
	return model.Infra("mark cart finalization pending", err)
}

func (r *CartFinalizationRepo) MarkDone(ctx context.Context, cartID string) error {
	return r.setStatus(ctx, cartID, model.FinalizationDone)
}

func (r *CartFinalizationRepo) MarkOrphaned(ctx context.Context, cartID string) error {
	return r.setStatus(ctx, cartID, model.FinalizationOrphaned)
}

func (r *CartFinalizationRepo) setStatus(ctx context.Context, cartID string, status model.FinalizationStatus) error {
	res := r.db.WithContext(ctx).Model(&model.CartFinalization{}).
		Where("cart_id = ?", cartID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return model.Infra("update cart finalization", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("cart finalization %s", cartID)
	}
	return nil
}

func (r *CartFinalizationRepo) IncrementAttempts(ctx context.Context, cartID string) error {
	err := r.db.WithContext(ctx).Model(&model.CartFinalization{}).
		Where("cart_id = ?", cartID).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
	return model.Infra("increment cart finalization attempts", err)
}

func (r *CartFinalizationRepo) ListPending(ctx context.Context, olderThan time.Time, limit int) ([]model.CartFinalization, error) {
	var records []model.CartFinalization
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.FinalizationPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, model.Infra("list pending cart finalizations", err)
	}
	return records, nil
}

var _ repository.ICartFinalizationRepository = (*CartFinalizationRepo)(nil)
