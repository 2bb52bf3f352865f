package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem 建立後不可變
type OrderItem struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID          string          `gorm:"not null;type:varchar(36);index" json:"order_id"`
	ProductRefID     string          `gorm:"not null;type:varchar(36)" json:"product_ref_id"`
	ProductRefNumber int             `gorm:"not null;index" json:"product_ref_number"`
	UnitPrice        decimal.Decimal `gorm:"not null;type:numeric(18,4)" json:"unit_price"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	Discount         decimal.Decimal `gorm:"not null;type:numeric(18,4)" json:"discount"`
	TotalAmount      decimal.Decimal `gorm:"not null;type:numeric(18,4)" json:"total_amount"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

var orderItemRules = []Rule[OrderItem]{
	{Field: "quantity", Message: "quantity must be greater than 0", Check: func(i OrderItem) bool { return i.Quantity > 0 }},
	{Field: "unit_price", Message: "unit price must be greater than 0", Check: func(i OrderItem) bool { return i.UnitPrice.IsPositive() }},
	{Field: "discount", Message: "discount cannot be negative", Check: func(i OrderItem) bool { return !i.Discount.IsNegative() }},
}

func NewOrderItem(orderID, productRefID string, productRefNumber int, unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) (*OrderItem, error) {
	item := OrderItem{
		ID:               uuid.NewString(),
		OrderID:          orderID,
		ProductRefID:     productRefID,
		ProductRefNumber: productRefNumber,
		UnitPrice:        unitPrice,
		Quantity:         quantity,
		Discount:         discount,
	}
	if err := ToError(Validate(item, orderItemRules)); err != nil {
		return nil, err
	}
	item.TotalAmount = unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
	return &item, nil
}
