package model

import (
	"time"

	"github.com/google/uuid"
)

type BaseCommand struct {
	CommandID   string      `json:"commandId"`
	AggregateID string      `json:"aggregateId"`
	CreatedAt   time.Time   `json:"createdAt"`
	CommandType CommandType `json:"commandType"`
}

func NewBaseCommand(aggregateID string, commandType CommandType) *BaseCommand {
	return &BaseCommand{
		CommandID:   uuid.NewString(),
		AggregateID: aggregateID,
		CreatedAt:   time.Now().UTC(),
		CommandType: commandType,
	}
}

func (c *BaseCommand) GetID() string {
	return c.CommandID
}

func (c *BaseCommand) GetAggregateID() string {
	return c.AggregateID
}

type CommandType string

const (
	CreateCartCommandName   CommandType = "CreateCart"
	UpdateCartCommandName   CommandType = "UpdateCart"
	DeleteCartCommandName   CommandType = "DeleteCart"
	CheckoutCartCommandName CommandType = "CheckoutCart"
)

type Command interface {
	Type() CommandType
	GetID() string
	GetAggregateID() string
}
