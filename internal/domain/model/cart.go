package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "Active"
	CartStatusCheckedOut CartStatus = "CheckedOut"
	CartStatusFinalized  CartStatus = "Finalized"
)

// Cart 購物車聚合
// 狀態只能 Active -> CheckedOut -> Finalized，不可跳過也不可回退
// Version 由 cart store 在每次寫入時遞增，用於樂觀鎖
type Cart struct {
	ID        string      `json:"id"`
	UserRefID string      `json:"user_ref_id"`
	Status    CartStatus  `json:"status"`
	Items     []*CartItem `json:"items"`
	Version   int64       `json:"version"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

func NewCart(userRefID string) *Cart {
	return NewCartWithID(uuid.NewString(), userRefID)
}

// NewCartWithID 由命令預先產生 ID 時使用
func NewCartWithID(id, userRefID string) *Cart {
	return &Cart{
		ID:        id,
		UserRefID: userRefID,
		Status:    CartStatusActive,
		Items:     []*CartItem{},
		CreatedAt: time.Now().UTC(),
	}
}

func (c *Cart) findItem(productRefNumber int) (int, *CartItem) {
	for i, item := range c.Items {
		if item.ProductRefNumber == productRefNumber {
			return i, item
		}
	}
	return -1, nil
}

// AddItem 同商品編號合併數量並重算折扣，合併後超過上限則拒絕，購物車不變
func (c *Cart) AddItem(productRefID string, productRefNumber int, unitPrice decimal.Decimal, quantity int) (*CartItem, error) {
	if !c.CanUpdate() {
		return nil, InvalidState("cart %s is %s, only active carts can be modified", c.ID, c.Status)
	}

	if _, existing := c.findItem(productRefNumber); existing != nil {
		if err := validateQuantity(quantity); err != nil {
			return nil, err
		}
		if err := existing.SetQuantity(existing.Quantity + quantity); err != nil {
			return nil, err
		}
		c.touch()
		return existing, nil
	}

	item, err := NewCartItem(c.ID, productRefID, productRefNumber, unitPrice, quantity)
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, item)
	c.touch()
	return item, nil
}

// RemoveItem 商品不存在時不視為錯誤
// 不檢查狀態：reconciliation 需要在 CheckedOut 狀態下剔除失效商品
func (c *Cart) RemoveItem(productRefNumber int) bool {
	i, item := c.findItem(productRefNumber)
	if item == nil {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// UpdateItemQuantity 取代數量 (非累加)，商品不存在時不做事
func (c *Cart) UpdateItemQuantity(productRefNumber int, quantity int) error {
	if !c.CanUpdate() {
		return InvalidState("cart %s is %s, only active carts can be modified", c.ID, c.Status)
	}
	_, item := c.findItem(productRefNumber)
	if item == nil {
		return nil
	}
	if err := item.SetQuantity(quantity); err != nil {
		return err
	}
	c.touch()
	return nil
}

func (c *Cart) Clear() {
	c.Items = []*CartItem{}
	c.touch()
}

func (c *Cart) GetTotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Total())
	}
	return total
}

func (c *Cart) GetTotalItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) CanDelete() bool {
	return c.Status == CartStatusActive
}

func (c *Cart) CanUpdate() bool {
	return c.Status == CartStatusActive
}

func (c *Cart) CanBeCheckedOut() bool {
	return c.Status == CartStatusActive && !c.IsEmpty()
}

func (c *Cart) SetCheckedOut() error {
	if !c.CanBeCheckedOut() {
		return InvalidState("only active carts with items can be checked out")
	}
	c.Status = CartStatusCheckedOut
	c.touch()
	return nil
}

func (c *Cart) CanBeFinalized() bool {
	return c.Status == CartStatusCheckedOut
}

func (c *Cart) SetFinalized() error {
	if !c.CanBeFinalized() {
		return InvalidState("cart %s is %s, only checked out carts can be finalized", c.ID, c.Status)
	}
	c.Status = CartStatusFinalized
	c.touch()
	return nil
}

func (c *Cart) touch() {
	now := time.Now().UTC()
	c.UpdatedAt = &now
}
