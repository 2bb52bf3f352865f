package model

import (
	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	"github.com/google/uuid"
)

type CartItemInput struct {
	ProductNumber int `json:"productNumber"`
	Quantity      int `json:"quantity"`
}

var cartItemInputRules = []model.Rule[CartItemInput]{
	{Field: "productNumber", Message: "product number must be greater than 0", Check: func(i CartItemInput) bool { return i.ProductNumber > 0 }},
	{Field: "quantity", Message: "quantity must be between 1 and 20", Check: func(i CartItemInput) bool {
		return i.Quantity >= model.MinItemQuantity && i.Quantity <= model.MaxItemQuantity
	}},
}

func validateItems(items []CartItemInput) []model.Violation {
	if len(items) == 0 {
		return []model.Violation{{Field: "items", Message: "at least one item is required"}}
	}
	var violations []model.Violation
	for _, item := range items {
		violations = append(violations, model.Validate(item, cartItemInputRules)...)
	}
	return violations
}

// GroupItems 相同商品編號合併數量，保留第一次出現的順序
func GroupItems(items []CartItemInput) []CartItemInput {
	index := make(map[int]int, len(items))
	grouped := make([]CartItemInput, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.ProductNumber]; ok {
			grouped[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductNumber] = len(grouped)
		grouped = append(grouped, item)
	}
	return grouped
}

// CreateCartCommand 購物車 ID 在建立命令時產生，呼叫端據此查詢結果
type CreateCartCommand struct {
	BaseCommand
	UserNumber int             `json:"userNumber"`
	Items      []CartItemInput `json:"items"`
}

func NewCreateCartCommand(userNumber int, items []CartItemInput) *CreateCartCommand {
	return &CreateCartCommand{
		BaseCommand: *NewBaseCommand(uuid.NewString(), CreateCartCommandName),
		UserNumber:  userNumber,
		Items:       items,
	}
}

func (c *CreateCartCommand) Type() CommandType {
	return CreateCartCommandName
}

func (c *CreateCartCommand) Validate() error {
	var violations []model.Violation
	if c.UserNumber <= 0 {
		violations = append(violations, model.Violation{Field: "userNumber", Message: "user number must be greater than 0"})
	}
	violations = append(violations, validateItems(c.Items)...)
	return model.ToError(violations)
}

type UpdateCartCommand struct {
	BaseCommand
	Items []CartItemInput `json:"items"`
}

func NewUpdateCartCommand(cartID string, items []CartItemInput) *UpdateCartCommand {
	return &UpdateCartCommand{
		BaseCommand: *NewBaseCommand(cartID, UpdateCartCommandName),
		Items:       items,
	}
}

func (c *UpdateCartCommand) Type() CommandType {
	return UpdateCartCommandName
}

func (c *UpdateCartCommand) Validate() error {
	var violations []model.Violation
	if c.AggregateID == "" {
		violations = append(violations, model.Violation{Field: "cartId", Message: "cart id is required"})
	}
	violations = append(violations, validateItems(c.Items)...)
	return model.ToError(violations)
}

type DeleteCartCommand struct {
	BaseCommand
}

func NewDeleteCartCommand(cartID string) *DeleteCartCommand {
	return &DeleteCartCommand{BaseCommand: *NewBaseCommand(cartID, DeleteCartCommandName)}
}

func (c *DeleteCartCommand) Type() CommandType {
	return DeleteCartCommandName
}

type CheckoutCartCommand struct {
	BaseCommand
}

func NewCheckoutCartCommand(cartID string) *CheckoutCartCommand {
	return &CheckoutCartCommand{BaseCommand: *NewBaseCommand(cartID, CheckoutCartCommandName)}
}

func (c *CheckoutCartCommand) Type() CommandType {
	return CheckoutCartCommandName
}
