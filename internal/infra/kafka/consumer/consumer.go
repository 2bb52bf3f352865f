package consumer

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/config"
	ka_err "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/errors"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
)

// KafkaReader kafka reader 並非併發安全，只能由單一 goroutine 讀取
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Processer 處理單一訊息，必須是無狀態
type Processer interface {
	Process(ctx context.Context, msg message.Message) error
}

type ProcesserFunc func(ctx context.Context, msg message.Message) error

func (f ProcesserFunc) Process(ctx context.Context, msg message.Message) error {
	return f(ctx, msg)
}

type ConsumeError struct {
	Message message.Message
	Err     error
}

type Option func(*Consumer)

func WithWorkerNum(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.workerNum = n
		}
	}
}

// WithHandleRetries 可重試錯誤的重試次數與初始間隔，間隔每次加倍
func WithHandleRetries(retries int, backoff time.Duration) Option {
	return func(c *Consumer) {
		if retries >= 0 {
			c.handleRetries = retries
		}
		if backoff > 0 {
			c.handleBackoff = backoff
		}
	}
}

// WithRetryPolicy 決定 Process 錯誤是否值得重試，預設都不重試
func WithRetryPolicy(retryable func(error) bool) Option {
	return func(c *Consumer) {
		if retryable != nil {
			c.retryable = retryable
		}
	}
}

// WithErrorHandler 放棄重試的訊息會先交給 handler 再提交
func WithErrorHandler(h func(ConsumeError)) Option {
	return func(c *Consumer) {
		if h != nil {
			c.handleError = h
		}
	}
}

func WithCommitInterval(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.commitInterval = d
		}
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// FromConfig 以 kafka config 的消費者設定建立 option
func FromConfig(cfg *config.Config) []Option {
	return []Option{
		WithWorkerNum(cfg.WorkerNum),
		WithHandleRetries(cfg.HandleRetries, cfg.HandleBackoff),
		WithCommitInterval(cfg.CommitInterval),
	}
}

// Consumer
// readMsg -> 依 partition 分派到固定 worker -> 處理結果送 commit loop
// 同一 partition 的訊息由同一 worker 依序處理，提交順序與 offset 一致
// ctx 取消後尚未處理完的訊息不提交，重啟後會重新投遞
type Consumer struct {
	reader    KafkaReader
	processer Processer
	logger    *zerolog.Logger

	workerNum      int
	handleRetries  int
	handleBackoff  time.Duration
	commitInterval time.Duration
	retryable      func(error) bool
	handleError    func(ConsumeError)

	isRunning atomic.Bool
	cancel    context.CancelFunc
	workers   []chan kafka.Message
	results   chan kafka.Message
	workerWg  sync.WaitGroup
	isStopped chan struct{}
}

func NewConsumer(reader KafkaReader, p Processer, opts ...Option) *Consumer {
	nop := zerolog.Nop()
	c := &Consumer{
		reader:         reader,
		processer:      p,
		logger:         &nop,
		workerNum:      4,
		handleRetries:  3,
		handleBackoff:  200 * time.Millisecond,
		commitInterval: 100 * time.Millisecond,
		retryable:      func(error) bool { return false },
		isStopped:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.handleError == nil {
		c.handleError = c.logError
	}
	return c
}

func (c *Consumer) Start(ctx context.Context) error {
	if !c.isRunning.CompareAndSwap(false, true) {
		return ka_err.ErrConsumerAlreadyRunning
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.results = make(chan kafka.Message, c.workerNum*16)
	c.workers = make([]chan kafka.Message, c.workerNum)
	for i := range c.workers {
		c.workers[i] = make(chan kafka.Message, 16)
		c.workerWg.Add(1)
		go func(in <-chan kafka.Message) {
			defer c.workerWg.Done()
			c.work(ctx, in)
		}(c.workers[i])
	}

	commitDone := make(chan struct{})
	go func() {
		defer close(commitDone)
		c.commitLoop()
	}()

	go func() {
		c.readMsg(ctx)
		for _, w := range c.workers {
			close(w)
		}
		c.workerWg.Wait()
		close(c.results)
		<-commitDone
		close(c.isStopped)
	}()
	return nil
}

// readMsg 由單一 goroutine 執行
// 依錯誤類型重試，或者直接結束 consumer
func (c *Consumer) readMsg(ctx context.Context) {
	retryTimes := 0
	backoff := 100 * time.Millisecond

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded) ||
				ctx.Err() != nil {
				c.logger.Info().Err(err).Msg("kafka reader closed, stop consumer")
				return
			}
			if ka_err.IsFatalError(err) {
				c.logger.Error().Err(err).Msg("kafka reader fatal error, stop consumer")
				return
			}

			retryTimes++
			if retryTimes > 3 {
				c.logger.Error().Err(err).Msg("kafka reader retry exhausted, stop consumer")
				return
			}
			c.logger.Warn().Err(err).Int("retry", retryTimes).Msg("kafka reader fetch failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}
		retryTimes = 0
		backoff = 100 * time.Millisecond

		idx := msg.Partition % c.workerNum
		if idx < 0 {
			idx = -idx
		}
		select {
		case c.workers[idx] <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) work(ctx context.Context, in <-chan kafka.Message) {
	for km := range in {
		if ctx.Err() != nil {
			continue
		}
		msg := message.FromKafkaMessage(km)
		err := c.processWithRetry(ctx, msg)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.handleError(ConsumeError{Message: msg, Err: err})
		}
		c.results <- km
	}
}

func (c *Consumer) processWithRetry(ctx context.Context, msg message.Message) error {
	backoff := c.handleBackoff
	var err error
	for attempt := 0; ; attempt++ {
		err = c.processer.Process(ctx, msg)
		if err == nil || !c.retryable(err) || attempt >= c.handleRetries {
			return err
		}
		c.logger.Warn().Err(err).
			Int("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Int("attempt", attempt+1).
			Msg("process message failed, retry")
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// commitLoop 藉由關閉 results 來退出，退出前提交剩餘訊息
func (c *Consumer) commitLoop() {
	ticker := time.NewTicker(c.commitInterval)
	defer ticker.Stop()

	toCommit := make([]kafka.Message, 0, 128)
	commit := func() {
		if len(toCommit) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.reader.CommitMessages(ctx, toCommit...); err != nil {
			c.logger.Error().Err(err).Int("count", len(toCommit)).Msg("commit messages failed")
		}
		toCommit = toCommit[:0]
	}

	for {
		select {
		case msg, ok := <-c.results:
			if !ok {
				commit()
				return
			}
			toCommit = append(toCommit, msg)
		case <-ticker.C:
			commit()
		}
	}
}

// Stop 停止讀取，等待 worker 結束並提交已處理的訊息
func (c *Consumer) Stop(timeout time.Duration) error {
	if !c.isRunning.Load() {
		return nil
	}
	c.cancel()

	select {
	case <-c.isStopped:
		return nil
	case <-time.After(timeout):
		return ka_err.ErrStopTimeout
	}
}

// C 在 consumer 完全停止後關閉
func (c *Consumer) C() <-chan struct{} {
	return c.isStopped
}

func (c *Consumer) logError(e ConsumeError) {
	c.logger.Error().Err(e.Err).
		Str("topic", e.Message.Topic).
		Int("partition", e.Message.Partition).
		Int64("offset", e.Message.Offset).
		Str("key", string(e.Message.Key)).
		Msg("consume message failed, message committed")
}

// NewKafkaReader consumer group reader，offset 由 Consumer 手動提交
func NewKafkaReader(cfg *config.Config, logger *zerolog.Logger) (*kafka.Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Str("topic", cfg.Topic).Msgf("kafka reader error: "+msg, args...)
		}),
	}), nil
}
