package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/RoyceAzure/lab/devstore/internal/domain/model"
	evt_model "github.com/RoyceAzure/lab/devstore/internal/domain/model/event"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/config"
	kafka_producer "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/producer"
	mock_writer "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/producer/mock"
)

func newTestProducer(w kafka_producer.Writer) *CartEventProducer {
	cfg := config.DefaultConfig()
	cfg.Brokers = []string{"localhost:9092"}
	cfg.Topic = "cart-events"
	cfg.RetryLimit = 0
	cfg.RetryDelay = time.Millisecond
	return NewCartEventProducer(kafka_producer.NewWithWriter(w, cfg))
}

func TestProduceCartCheckedOutEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := mock_writer.NewMockWriter(ctrl)
	w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msgs ...kafka.Message) error {
			require.Len(t, msgs, 1)
			msg := msgs[0]
			require.Equal(t, "cart-1", string(msg.Key))
			require.Len(t, msg.Headers, 1)
			require.Equal(t, EventTypeHeader, msg.Headers[0].Key)
			require.Equal(t, string(evt_model.CartCheckedOutEventName), string(msg.Headers[0].Value))

			var evt evt_model.CartCheckedOutEvent
			require.NoError(t, json.Unmarshal(msg.Value, &evt))
			require.Equal(t, "cart-1", evt.CartID)
			require.NotEmpty(t, evt.EventID)
			return nil
		}).Times(1)

	require.NoError(t, newTestProducer(w).ProduceCartCheckedOutEvent(context.Background(), "cart-1"))
}

func TestProduceCartCheckedOutEvent_FailureIsInfrastructure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	w := mock_writer.NewMockWriter(ctrl)
	w.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down")).Times(1)

	err := newTestProducer(w).ProduceCartCheckedOutEvent(context.Background(), "cart-1")
	require.ErrorIs(t, err, model.ErrInfrastructure)
	require.True(t, model.IsRetryable(err))
}
