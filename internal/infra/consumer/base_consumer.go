package consumer

import (
	"context"
	"errors"
	"time"

	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
	"github.com/rs/zerolog"
)

type ConsumerError error

var (
	ErrUnknownEventFormat ConsumerError = errors.New("unknown event format")
	ErrDecodeEvent        ConsumerError = errors.New("decode event failed")
)

type IBaseConsumer interface {
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
	C() <-chan struct{}
}

// eventTransformer 將 kafka 訊息還原成事件後交給 handler
type eventTransformer interface {
	transformData(msg message.Message) (evt_model.Event, error)
	Handle(ctx context.Context, evt evt_model.Event) error
}

// baseConsumer 轉接 kafka consumer.Processer
// 無法解析的訊息直接回傳，由 consumer 記錄後提交，不重試
type baseConsumer struct {
	handler eventTransformer
	logger  *zerolog.Logger
}

func (c *baseConsumer) Process(ctx context.Context, msg message.Message) error {
	evt, err := c.handler.transformData(msg)
	if err != nil {
		c.logger.Error().Err(err).
			Str("key", string(msg.Key)).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("drop message with unknown format")
		return err
	}
	return c.handler.Handle(ctx, evt)
}
