package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Rating struct {
	Rate  decimal.Decimal `gorm:"column:rating_rate;not null;type:numeric(4,2);default:0" json:"rate" yaml:"rate"`
	Count int             `gorm:"column:rating_count;not null;default:0" json:"count" yaml:"count"`
}

type Product struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ProductNumber int             `gorm:"not null;default:nextval('products_product_number_seq');uniqueIndex" json:"product_number"`
	Title         string          `gorm:"not null;type:varchar(200)" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"not null;type:numeric(18,4)" json:"price"`
	Category      string          `gorm:"not null;type:varchar(100)" json:"category"`
	ImageURL      string          `gorm:"column:image_url;type:varchar(500)" json:"image_url"`
	Rating        Rating          `gorm:"embedded" json:"rating"`
	BaseModel
}

func (Product) TableName() string {
	return "products"
}

var productRules = []Rule[Product]{
	{Field: "title", Message: "title is required", Check: func(p Product) bool { return strings.TrimSpace(p.Title) != "" }},
	{Field: "price", Message: "price must be greater than 0", Check: func(p Product) bool { return p.Price.IsPositive() }},
	{Field: "category", Message: "category is required", Check: func(p Product) bool { return strings.TrimSpace(p.Category) != "" }},
	{Field: "rating.rate", Message: "rate must be between 0 and 5", Check: func(p Product) bool {
		return !p.Rating.Rate.IsNegative() && p.Rating.Rate.LessThanOrEqual(decimal.NewFromInt(5))
	}},
	{Field: "rating.count", Message: "rating count cannot be negative", Check: func(p Product) bool { return p.Rating.Count >= 0 }},
}

func NewProduct(title, description string, price decimal.Decimal, category, imageURL string, rating Rating) (*Product, error) {
	p := Product{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Price:       price,
		Category:    category,
		ImageURL:    imageURL,
		Rating:      rating,
	}
	if err := ToError(Validate(p, productRules)); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update 驗證失敗時商品保持原狀
// 已存在於購物車與訂單中的單價不受影響
func (p *Product) Update(title, description string, price decimal.Decimal, category, imageURL string, rating Rating) error {
	next := *p
	next.Title = title
	next.Description = description
	next.Price = price
	next.Category = category
	next.ImageURL = imageURL
	next.Rating = rating
	if err := ToError(Validate(next, productRules)); err != nil {
		return err
	}
	now := time.Now().UTC()
	next.UpdatedAt = &now
	*p = next
	return nil
}
