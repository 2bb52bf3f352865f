package service

import (
	"context"
	"strings"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/shopspring/decimal"
)

type CreateProductParams struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Rating      model.Rating
}

type IProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (*model.Product, error)
	GetProduct(ctx context.Context, productNumber int) (*model.Product, error)
	ListProducts(ctx context.Context, q ListQuery) (paging.Page[model.Product], error)
	UpdateProduct(ctx context.Context, productNumber int, params CreateProductParams) (*model.Product, error)
	DeleteProduct(ctx context.Context, productNumber int) error
	GetCategories(ctx context.Context) ([]string, error)
	ListProductsByCategory(ctx context.Context, category string, q ListQuery) (paging.Page[model.Product], error)
}

type ProductService struct {
	uow repository.IUnitOfWork
}

func NewProductService(uow repository.IUnitOfWork) *ProductService {
	if uow == nil {
		panic("product service dependency uow is nil")
	}
	return &ProductService{uow: uow}
}

func (s *ProductService) CreateProduct(ctx context.Context, params CreateProductParams) (*model.Product, error) {
	product, err := model.NewProduct(params.Title, params.Description, params.Price, params.Category, params.ImageURL, params.Rating)
	if err != nil {
		return nil, err
	}
	if err := s.uow.Products().Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productNumber int) (*model.Product, error) {
	return s.uow.Products().GetByNumber(ctx, productNumber)
}

func (s *ProductService) ListProducts(ctx context.Context, q ListQuery) (paging.Page[model.Product], error) {
	p := q.params()
	items, total, err := s.uow.Products().GetPaged(ctx, p, q.terms(repository.ProductSortFields, repository.ProductDefaultSort))
	if err != nil {
		return paging.Page[model.Product]{}, err
	}
	return paging.NewPage(items, total, p), nil
}

// UpdateProduct 價格變動只影響之後加入購物車的商品
func (s *ProductService) UpdateProduct(ctx context.Context, productNumber int, params CreateProductParams) (*model.Product, error) {
	var product *model.Product
	err := s.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		p, err := tx.Products().GetByNumber(ctx, productNumber)
		if err != nil {
			return err
		}
		if err := p.Update(params.Title, params.Description, params.Price, params.Category, params.ImageURL, params.Rating); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	return s.uow.Products().GetCategories(ctx)
}

func (s *ProductService) ListProductsByCategory(ctx context.Context, category string, q ListQuery) (paging.Page[model.Product], error) {
	if strings.TrimSpace(category) == "" {
		return paging.Page[model.Product]{}, model.ToError([]model.Violation{{Field: "category", Message: "category is required"}})
	}
	p := q.params()
	items, total, err := s.uow.Products().GetPagedByCategory(ctx, category, p, q.terms(repository.ProductSortFields, repository.ProductDefaultSort))
	if err != nil {
		return paging.Page[model.Product]{}, err
	}
	return paging.NewPage(items, total, p), nil
}

// DeleteProduct 已被訂單引用的商品不可刪除
// 購物車內的商品不檢查，結帳時由 reconciliation 剔除
func (s *ProductService) DeleteProduct(ctx context.Context, productNumber int) error {
	return s.uow.Transaction(ctx, func(tx repository.IUnitOfWork) error {
		if _, err := tx.Products().GetByNumber(ctx, productNumber); err != nil {
			return err
		}
		referenced, err := tx.Orders().ExistsByProductNumber(ctx, productNumber)
		if err != nil {
			return err
		}
		if referenced {
			return model.InvalidState("product %d is referenced by existing orders", productNumber)
		}
		return tx.Products().Delete(ctx, productNumber)
	})
}

var _ IProductService = (*ProductService)(nil)
