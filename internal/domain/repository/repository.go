package repository

import (
	"context"
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
)

// 購物車排序欄位
const (
	CartSortID        sorting.Field = "id"
	CartSortUserID    sorting.Field = "user_id"
	CartSortCreatedAt sorting.Field = "created_at"
	CartSortStatus    sorting.Field = "status"
)

var CartSortFields = sorting.AllowList{
	"id":        CartSortID,
	"userid":    CartSortUserID,
	"createdat": CartSortCreatedAt,
	"status":    CartSortStatus,
}

var CartDefaultSort = sorting.Term{Field: CartSortCreatedAt, Direction: sorting.Asc}

// 訂單排序欄位
const (
	OrderSortNumber    sorting.Field = "order_number"
	OrderSortCreatedAt sorting.Field = "created_at"
	OrderSortTotal     sorting.Field = "total_amount"
	OrderSortStatus    sorting.Field = "status"
)

var OrderSortFields = sorting.AllowList{
	"ordernumber": OrderSortNumber,
	"createdat":   OrderSortCreatedAt,
	"totalamount": OrderSortTotal,
	"status":      OrderSortStatus,
}

var OrderDefaultSort = sorting.Term{Field: OrderSortCreatedAt, Direction: sorting.Asc}

// 商品排序欄位
const (
	ProductSortNumber   sorting.Field = "product_number"
	ProductSortTitle    sorting.Field = "title"
	ProductSortPrice    sorting.Field = "price"
	ProductSortCategory sorting.Field = "category"
)

var ProductSortFields = sorting.AllowList{
	"productnumber": ProductSortNumber,
	"title":         ProductSortTitle,
	"price":         ProductSortPrice,
	"category":      ProductSortCategory,
}

var ProductDefaultSort = sorting.Term{Field: ProductSortNumber, Direction: sorting.Asc}

// ICartRepository 購物車 document store
// GetByID 找不到時回傳包裝 model.ErrNotFound 的錯誤
// GetActiveByUser 找不到時回傳 nil, nil
// Update 以 cart.Version 做樂觀鎖，成功後 Version 遞增
type ICartRepository interface {
	GetByID(ctx context.Context, id string) (*model.Cart, error)
	GetActiveByUser(ctx context.Context, userID string) (*model.Cart, error)
	Add(ctx context.Context, cart *model.Cart) error
	Update(ctx context.Context, cart *model.Cart) error
	Remove(ctx context.Context, cart *model.Cart) error
	GetPaged(ctx context.Context, p paging.Params, sort []sorting.Term) ([]*model.Cart, int64, error)
}

type IProductRepository interface {
	ExistsByNumber(ctx context.Context, productNumber int) (bool, error)
	GetByNumber(ctx context.Context, productNumber int) (*model.Product, error)
	GetMany(ctx context.Context, productNumbers []int) ([]model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, productNumber int) error
	GetPaged(ctx context.Context, p paging.Params, sort []sorting.Term) ([]model.Product, int64, error)
	// GetCategories 回傳去重後依字母排序的分類
	GetCategories(ctx context.Context) ([]string, error)
	GetPagedByCategory(ctx context.Context, category string, p paging.Params, sort []sorting.Term) ([]model.Product, int64, error)
}

// GetFirstAvailable 依建立時間取最早的分店，沒有分店時回傳 nil, nil
type IBranchRepository interface {
	GetFirstAvailable(ctx context.Context) (*model.Branch, error)
	GetByID(ctx context.Context, id string) (*model.Branch, error)
	GetByName(ctx context.Context, name string) (*model.Branch, error)
	Create(ctx context.Context, branch *model.Branch) error
	Delete(ctx context.Context, id string) error
}

// GetByCartRef 找不到時回傳 nil, nil
type IOrderRepository interface {
	Add(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByCartRef(ctx context.Context, cartID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, order *model.Order) error
	GetPaged(ctx context.Context, p paging.Params, sort []sorting.Term) ([]model.Order, int64, error)
	ExistsByProductNumber(ctx context.Context, productNumber int) (bool, error)
	ExistsByBranch(ctx context.Context, branchID string) (bool, error)
	ExistsByCustomer(ctx context.Context, userID string) (bool, error)
}

type IUserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByNumber(ctx context.Context, userNumber int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

type ICartFinalizationRepository interface {
	MarkPending(ctx context.Context, cartID, orderID string) error
	MarkDone(ctx context.Context, cartID string) error
	MarkOrphaned(ctx context.Context, cartID string) error
	IncrementAttempts(ctx context.Context, cartID string) error
	ListPending(ctx context.Context, olderThan time.Time, limit int) ([]model.CartFinalization, error)
}

// IUnitOfWork 關聯式資料庫的存取入口
// Transaction 內所有寫入在 fn 回傳 nil 時一次提交，否則回滾
type IUnitOfWork interface {
	Users() IUserRepository
	Products() IProductRepository
	Branches() IBranchRepository
	Orders() IOrderRepository
	Finalizations() ICartFinalizationRepository
	Transaction(ctx context.Context, fn func(tx IUnitOfWork) error) error
}

// ICartLocker 同一購物車同時間只允許一個 reconciliation
type ICartLocker interface {
	Acquire(ctx context.Context, cartID string) (release func(context.Context) error, err error)
}

// IProcessedEventCache 記錄已處理的事件，重複投遞時略過
type IProcessedEventCache interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string) error
}
