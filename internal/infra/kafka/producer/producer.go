package producer

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/config"
	ka_err "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/errors"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
)

// Producer 生產者會寫入到固定topic，由config.Config設置
type Producer interface {
	// Produce 同步發送，會block到所有消息都寫入
	Produce(ctx context.Context, msgs []message.Message) error
	Close() error
}

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaProducer struct {
	writer Writer
	cfg    *config.Config
	closed atomic.Bool
}

func New(cfg *config.Config, logger *zerolog.Logger) (Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     cfg.GetBalancer(),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Async:        false,
		// 重試由 Produce 控制
		MaxAttempts: 1,

		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},

		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Str("topic", cfg.Topic).Msgf("kafka producer error: "+msg, args...)
		}),
	}

	return NewWithWriter(writer, cfg), nil
}

// NewWithWriter 使用外部提供的 writer，cfg 只用於重試設定
func NewWithWriter(w Writer, cfg *config.Config) Producer {
	return &kafkaProducer{
		writer: w,
		cfg:    cfg,
	}
}

func (p *kafkaProducer) Produce(ctx context.Context, msgs []message.Message) error {
	if p.closed.Load() {
		return ka_err.ErrClientClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kafkaMsgs[i] = msg.ToKafkaMessage()
	}

	delay := p.cfg.RetryDelay
	var err error
	for attempt := 0; attempt <= p.cfg.RetryLimit; attempt++ {
		if ctx.Err() != nil {
			return ka_err.NewKafkaError("Produce", p.cfg.Topic, ctx.Err())
		}

		err = p.writer.WriteMessages(ctx, kafkaMsgs...)
		if err == nil {
			return nil
		}
		if !ka_err.IsTemporaryError(err) || attempt == p.cfg.RetryLimit {
			break
		}

		select {
		case <-ctx.Done():
			return ka_err.NewKafkaError("Produce", p.cfg.Topic, ctx.Err())
		case <-time.After(delay):
		}
		if p.cfg.RetryFactor > 1 {
			delay *= time.Duration(p.cfg.RetryFactor)
		}
	}

	return ka_err.NewKafkaError("Produce", p.cfg.Topic, err)
}

func (p *kafkaProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
