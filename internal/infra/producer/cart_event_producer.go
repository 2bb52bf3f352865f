package producer

import (
	"context"
	"encoding/json"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/producer"
)

const EventTypeHeader = "event_type"

type ICartEventProducer interface {
	ProduceCartCheckedOutEvent(ctx context.Context, cartID string) error
}

// CartEventProducer 需要根據cartID做balancer分區
// topic: 由producer創建時設置
type CartEventProducer struct {
	producer producer.Producer
}

func NewCartEventProducer(producer producer.Producer) *CartEventProducer {
	return &CartEventProducer{producer: producer}
}

func (c *CartEventProducer) ProduceCartCheckedOutEvent(ctx context.Context, cartID string) error {
	evt := evt_model.NewCartCheckedOutEvent(cartID)

	msg, err := c.convertToMessage(cartID, evt)
	if err != nil {
		return err
	}

	if err := c.producer.Produce(ctx, []message.Message{msg}); err != nil {
		return model.Infra("publish CartCheckedOut", err)
	}
	return nil
}

func (c *CartEventProducer) convertToMessage(cartID string, evt evt_model.Event) (message.Message, error) {
	evtValue, err := json.Marshal(evt)
	if err != nil {
		return message.Message{}, err
	}

	return message.Message{
		Key:   []byte(cartID),
		Value: evtValue,
		Headers: []message.Header{
			{
				Key:   EventTypeHeader,
				Value: []byte(evt.Type()),
			},
		},
	}, nil
}

var _ ICartEventProducer = (*CartEventProducer)(nil)
