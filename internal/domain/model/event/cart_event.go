package model

// CartCheckedOutEvent 結帳完成後發送，由 reconciliation handler 建立訂單
type CartCheckedOutEvent struct {
	BaseEvent
	CartID string `json:"cartId"`
}

func NewCartCheckedOutEvent(cartID string) *CartCheckedOutEvent {
	return &CartCheckedOutEvent{
		BaseEvent: *NewBaseEvent(cartID, CartCheckedOutEventName),
		CartID:    cartID,
	}
}

func (e *CartCheckedOutEvent) Type() EventType {
	return CartCheckedOutEventName
}
