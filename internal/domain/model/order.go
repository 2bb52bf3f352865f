package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Order 由已結帳購物車產生的訂單快照，金額在建立時凍結
// OrderNumber 由資料庫 sequence 產生
type Order struct {
	ID            string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber   int64           `gorm:"not null;default:nextval('orders_order_number_seq');uniqueIndex" json:"order_number"`
	CustomerRefID string          `gorm:"not null;type:varchar(36);index" json:"customer_ref_id"`
	BranchRefID   string          `gorm:"not null;type:varchar(36);index" json:"branch_ref_id"`
	CartRefID     string          `gorm:"not null;type:varchar(36);uniqueIndex" json:"cart_ref_id"`
	TotalAmount   decimal.Decimal `gorm:"not null;type:numeric(18,4)" json:"total_amount"`
	Status        OrderStatus     `gorm:"not null;type:varchar(16)" json:"status"`
	OrderItems    []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     *time.Time      `gorm:"null" json:"updated_at,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// NewOrder 只接受 CheckedOut 且有商品的購物車
// 每個 OrderItem 沿用購物車項目已計算的折扣，不重算
func NewOrder(cart *Cart, customerRefID, branchRefID string) (*Order, error) {
	if cart.Status != CartStatusCheckedOut {
		return nil, InvalidState("order can only be created from a checked out cart, cart %s is %s", cart.ID, cart.Status)
	}
	if cart.IsEmpty() {
		return nil, InvalidState("order cannot be created from empty cart %s", cart.ID)
	}

	order := &Order{
		ID:            uuid.NewString(),
		CustomerRefID: customerRefID,
		BranchRefID:   branchRefID,
		CartRefID:     cart.ID,
		TotalAmount:   cart.GetTotalAmount(),
		Status:        OrderStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	order.OrderItems = make([]OrderItem, 0, len(cart.Items))
	for _, ci := range cart.Items {
		item, err := NewOrderItem(order.ID, ci.ProductRefID, ci.ProductRefNumber, ci.UnitPrice, ci.Quantity, ci.Discount)
		if err != nil {
			return nil, err
		}
		order.OrderItems = append(order.OrderItems, *item)
	}
	return order, nil
}

func (o *Order) Confirm() error {
	if o.Status != OrderStatusPending {
		return InvalidState("only pending orders can be confirmed, order %s is %s", o.ID, o.Status)
	}
	o.Status = OrderStatusConfirmed
	o.touch()
	return nil
}

func (o *Order) Cancel() error {
	switch o.Status {
	case OrderStatusCancelled:
		return InvalidState("order %s is already cancelled", o.ID)
	case OrderStatusConfirmed:
		return InvalidState("confirmed order %s cannot be cancelled", o.ID)
	}
	o.Status = OrderStatusCancelled
	o.touch()
	return nil
}

// ItemsTotal 各項目金額加總，建立時應與 TotalAmount 相等
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.OrderItems {
		total = total.Add(item.TotalAmount)
	}
	return total
}

func (o *Order) touch() {
	now := time.Now().UTC()
	o.UpdatedAt = &now
}
