package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID               string          `json:"id"`
	CartID           string          `json:"cart_id"`
	ProductRefID     string          `json:"product_ref_id"`
	ProductRefNumber int             `json:"product_ref_number"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Quantity         int             `json:"quantity"`
	Discount         decimal.Decimal `json:"discount"`
}

var cartItemRules = []Rule[CartItem]{
	{Field: "product_ref_number", Message: "product number must be greater than 0", Check: func(i CartItem) bool { return i.ProductRefNumber > 0 }},
	{Field: "unit_price", Message: "unit price must be greater than 0", Check: func(i CartItem) bool { return i.UnitPrice.IsPositive() }},
	{Field: "quantity", Message: "quantity must be between 1 and 20", Check: func(i CartItem) bool { return quantityInRange(i.Quantity) }},
}

func NewCartItem(cartID, productRefID string, productRefNumber int, unitPrice decimal.Decimal, quantity int) (*CartItem, error) {
	item := CartItem{
		ID:               uuid.NewString(),
		CartID:           cartID,
		ProductRefID:     productRefID,
		ProductRefNumber: productRefNumber,
		UnitPrice:        unitPrice,
		Quantity:         quantity,
	}
	if err := ToError(Validate(item, cartItemRules)); err != nil {
		return nil, err
	}
	item.Discount = CalculateDiscount(item.Quantity, item.UnitPrice)
	return &item, nil
}

// SetQuantity 每次數量變動都重算折扣
func (i *CartItem) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	i.Quantity = quantity
	i.Discount = CalculateDiscount(i.Quantity, i.UnitPrice)
	return nil
}

func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Total 折扣後金額
func (i *CartItem) Total() decimal.Decimal {
	return i.Subtotal().Sub(i.Discount)
}

func quantityInRange(q int) bool {
	return q >= MinItemQuantity && q <= MaxItemQuantity
}

func validateQuantity(q int) error {
	if quantityInRange(q) {
		return nil
	}
	return &ValidationError{Violations: []Violation{{Field: "quantity", Message: "quantity must be between 1 and 20"}}}
}
