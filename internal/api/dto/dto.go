package dto

import (
	"time"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	cmd_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/command"
	"github.com/RoyceAzure/lab/devstore/internal/pkg/paging"
	"github.com/shopspring/decimal"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type UserDTO struct {
	ID         string    `json:"id"`
	UserNumber int       `json:"user_number"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		UserNumber: u.UserNumber,
		Username:   u.Username,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       string(u.Role),
		Status:     string(u.Status),
		CreatedAt:  u.CreatedAt,
	}
}

type RatingDTO struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

// Price 可以是 json number 或字串
type CreateProductRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Rating      RatingDTO       `json:"rating"`
}

// UpdateProductRequest 整筆覆寫，欄位規則與建立時相同
type UpdateProductRequest CreateProductRequest

type CategoriesDTO struct {
	Categories []string `json:"categories"`
}

type ProductDTO struct {
	ID            string          `json:"id"`
	ProductNumber int             `json:"product_number"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	ImageURL      string          `json:"image_url"`
	Rating        RatingDTO       `json:"rating"`
}

func NewProductDTO(p model.Product) ProductDTO {
	return ProductDTO{
		ID:            p.ID,
		ProductNumber: p.ProductNumber,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Rating:        RatingDTO{Rate: p.Rating.Rate, Count: p.Rating.Count},
	}
}

type CreateBranchRequest struct {
	Name string `json:"name"`
}

type BranchDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBranchDTO(b *model.Branch) BranchDTO {
	return BranchDTO{ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt}
}

type CartItemRequest struct {
	ProductNumber int `json:"product_number"`
	Quantity      int `json:"quantity"`
}

type CreateCartRequest struct {
	UserNumber int               `json:"user_number"`
	Items      []CartItemRequest `json:"items"`
}

type UpdateCartRequest struct {
	Items []CartItemRequest `json:"items"`
}

func ToCartItemInputs(items []CartItemRequest) []cmd_model.CartItemInput {
	inputs := make([]cmd_model.CartItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, cmd_model.CartItemInput{ProductNumber: item.ProductNumber, Quantity: item.Quantity})
	}
	return inputs
}

type CartItemDTO struct {
	ProductID     string          `json:"product_id"`
	ProductNumber int             `json:"product_number"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

type CartDTO struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	Items       []CartItemDTO   `json:"items"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

func NewCartDTO(c *model.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemDTO{
			ProductID:     item.ProductRefID,
			ProductNumber: item.ProductRefNumber,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Discount:      item.Discount,
			Total:         item.Total(),
		})
	}
	return CartDTO{
		ID:          c.ID,
		UserID:      c.UserRefID,
		Status:      string(c.Status),
		Items:       items,
		TotalItems:  c.GetTotalItemCount(),
		TotalAmount: c.GetTotalAmount(),
		Version:     c.Version,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type OrderItemDTO struct {
	ProductID     string          `json:"product_id"`
	ProductNumber int             `json:"product_number"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Discount      decimal.Decimal `json:"discount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

type OrderDTO struct {
	ID          string          `json:"id"`
	OrderNumber int64           `json:"order_number"`
	CustomerID  string          `json:"customer_id"`
	BranchID    string          `json:"branch_id"`
	CartID      string          `json:"cart_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItemDTO  `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

func NewOrderDTO(o *model.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.OrderItems))
	for _, item := range o.OrderItems {
		items = append(items, OrderItemDTO{
			ProductID:     item.ProductRefID,
			ProductNumber: item.ProductRefNumber,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			Discount:      item.Discount,
			TotalAmount:   item.TotalAmount,
		})
	}
	return OrderDTO{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerRefID,
		BranchID:    o.BranchRefID,
		CartID:      o.CartRefID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// MapPage 轉換分頁內容，保留分頁資訊
func MapPage[T, D any](p paging.Page[T], convert func(T) D) paging.Page[D] {
	items := make([]D, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, convert(item))
	}
	return paging.Page[D]{
		Items:      items,
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}
