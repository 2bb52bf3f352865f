package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	event_handler "github.com/RoyceAzure/lab/devstore/internal/handler/event"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/consumer"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
	"github.com/RoyceAzure/lab/devstore/internal/infra/producer"
	"github.com/rs/zerolog"
)

type CartEventConsumer struct {
	cartEventHandler event_handler.Handler
}

func (c *CartEventConsumer) Handle(ctx context.Context, evt evt_model.Event) error {
	return c.cartEventHandler.HandleEvent(ctx, evt)
}

func (c *CartEventConsumer) transformData(msg message.Message) (evt_model.Event, error) {
	eventType, _ := msg.GetHeader(producer.EventTypeHeader)

	switch evt_model.EventType(eventType) {
	case evt_model.CartCheckedOutEventName:
		evt := &evt_model.CartCheckedOutEvent{}
		if err := json.Unmarshal(msg.Value, evt); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrDecodeEvent, err)
		}
		if evt.CartID == "" {
			return nil, fmt.Errorf("%w: cart id is empty", ErrDecodeEvent)
		}
		return evt, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventFormat, eventType)
	}
}

// NewCartEventProcesser 只有 infrastructure 錯誤會重試
func NewCartEventProcesser(cartEventHandler event_handler.Handler, logger *zerolog.Logger) consumer.Processer {
	return &baseConsumer{
		handler: &CartEventConsumer{cartEventHandler: cartEventHandler},
		logger:  logger,
	}
}

// NewCartEventConsumer reader 由呼叫端建立，Stop 後需自行關閉
func NewCartEventConsumer(reader consumer.KafkaReader, cartEventHandler event_handler.Handler, logger *zerolog.Logger, opts ...consumer.Option) IBaseConsumer {
	opts = append(opts,
		consumer.WithRetryPolicy(model.IsRetryable),
		consumer.WithLogger(logger),
	)
	return consumer.NewConsumer(reader, NewCartEventProcesser(cartEventHandler, logger), opts...)
}
