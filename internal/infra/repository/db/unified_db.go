package db

import (
	"context"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"gorm.io/gorm"
)

// UnifiedDBImpl 統一資料庫實現，同時作為 unit of work
// 在 Transaction 內取得的 repo 都綁定同一個 tx
type UnifiedDBImpl struct {
	db                   *gorm.DB
	dbDao                *DbDao
	userRepo             *UserRepo
	productRepo          *ProductRepo
	branchRepo           *BranchRepo
	orderRepo            *OrderRepo
	cartFinalizationRepo *CartFinalizationRepo
}

// NewUnifiedDB 創建新的統一資料庫實例
func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:                   db,
		dbDao:                dbDao,
		userRepo:             NewUserRepo(dbDao),
		productRepo:          NewProductRepo(dbDao),
		branchRepo:           NewBranchRepo(dbDao),
		orderRepo:            NewOrderRepo(dbDao),
		cartFinalizationRepo: NewCartFinalizationRepo(dbDao),
	}
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

func (u *UnifiedDBImpl) Users() repository.IUserRepository {
	return u.userRepo
}

func (u *UnifiedDBImpl) Products() repository.IProductRepository {
	return u.productRepo
}

func (u *UnifiedDBImpl) Branches() repository.IBranchRepository {
	return u.branchRepo
}

func (u *UnifiedDBImpl) Orders() repository.IOrderRepository {
	return u.orderRepo
}

func (u *UnifiedDBImpl) Finalizations() repository.ICartFinalizationRepository {
	return u.cartFinalizationRepo
}

// Transaction fn 回傳 nil 時 commit，回傳錯誤或 panic 時 rollback
func (u *UnifiedDBImpl) Transaction(ctx context.Context, fn func(tx repository.IUnitOfWork) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnifiedDB(tx))
	})
	return model.Infra("commit transaction", err)
}

func (u *UnifiedDBImpl) Close() error {
	sqlDB, err := u.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ repository.IUnitOfWork = (*UnifiedDBImpl)(nil)
