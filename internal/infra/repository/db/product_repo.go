package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/RoyceAzure/lab/devstore/internal/domain/repository"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/sorting"
)

var productSortColumns = map[sorting.Field]string{
	repository.ProductSortNumber:   "product_number",
	repository.ProductSortTitle:    "title",
	repository.ProductSortPrice:    "price",
	repository.ProductSortCategory: "category",
}

// 商品刪除為軟刪除，刪除後 ExistsByNumber 即回傳 false
type ProductRepo struct {
	db *DbDao
}

func NewProductRepo(db *DbDao) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, product *model.Product) error {
	return translateError("create product", r.db.WithContext(ctx).Create(product).Error)
}

func (r *ProductRepo) ExistsByNumber(ctx context.Context, productNumber int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_number = ?", productNumber).
		Count(&count).Error
	if err != nil {
		return false, model.Infra("check product exists", err)
	}
	return count > 0, nil
}

func (r *ProductRepo) GetByNumber(ctx context.Context, productNumber int) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).First(&product, "product_number = ?", productNumber).Error
	if err != nil {
		return nil, translateError(fmt.Sprintf("product with number %d", productNumber), err)
	}
	return &product, nil
}

func (r *ProductRepo) GetMany(ctx context.Context, productNumbers []int) ([]model.Product, error) {
	var products []model.Product
	if len(productNumbers) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Where("product_number IN ?", productNumbers).
		Find(&products).Error
	if err != nil {
		return nil, model.Infra("get products", err)
	}
	return products, nil
}

// Update 以 product_number 定位，只覆寫可編輯欄位
func (r *ProductRepo) Update(ctx context.Context, product *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_number = ?", product.ProductNumber).
		Updates(map[string]interface{}{
			"title":        product.Title,
			"description":  product.Description,
			"price":        product.Price,
			"category":     product.Category,
			"image_url":    product.ImageURL,
			"rating_rate":  product.Rating.Rate,
			"rating_count": product.Rating.Count,
			"updated_at":   product.UpdatedAt,
		})
	if res.Error != nil {
		return model.Infra("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("product with number %d", product.ProductNumber)
	}
	return nil
}

func (r *ProductRepo) Delete(ctx context.Context, productNumber int) error {
	res := r.db.WithContext(ctx).Where("product_number = ?", productNumber).Delete(&model.Product{})
	if res.Error != nil {
		return model.Infra("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.NotFound("product with number %d", productNumber)
	}
	return nil
}

func (r *ProductRepo) GetPaged(ctx context.Context, p paging.Params, terms []sorting.Term) ([]model.Product, int64, error) {
	var (
		total    int64
		products []model.Product
	)
	tx := r.db.WithContext(ctx).Model(&model.Product{})
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, model.Infra("count products", err)
	}

	err := applySort(r.db.WithContext(ctx), terms, productSortColumns, "id").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, 0, model.Infra("list products", err)
	}
	return products, total, nil
}

func (r *ProductRepo) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, model.Infra("list categories", err)
	}
	return categories, nil
}

func (r *ProductRepo) GetPagedByCategory(ctx context.Context, category string, p paging.Params, terms []sorting.Term) ([]model.Product, int64, error) {
	var (
		total    int64
		products []model.Product
	)
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category = ?", category).Count(&total).Error; err != nil {
		return nil, 0, model.Infra("count products by category", err)
	}

	err := applySort(r.db.WithContext(ctx).Where("category = ?", category), terms, productSortColumns, "id").
		Offset(p.Offset()).Limit(p.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, 0, model.Infra("list products by category", err)
	}
	return products, total, nil
}

var _ repository.IProductRepository = (*ProductRepo)(nil)
