package config

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrInvalidConfig = errors.New("invalid kafka config")

// Config represents the configuration for Kafka client
type Config struct {
	// Broker 配置
	Brokers []string
	Topic   string

	// 消費者配置
	ConsumerGroup string
	WorkerNum     int
	// 單一訊息處理失敗時的重試次數，超過後提交並記錄
	HandleRetries int
	HandleBackoff time.Duration

	// 生產者配置
	RequiredAcks int
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration

	// 通用配置
	RetryLimit     int
	RetryDelay     time.Duration
	RetryFactor    int
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration

	// 分區策略配置
	Balancer kafka.Balancer
}

// GetBalancer 取得負載平衡器，如果沒有設定則使用預設的 LeastBytes
func (c *Config) GetBalancer() kafka.Balancer {
	if c.Balancer != nil {
		return c.Balancer
	}
	return &kafka.LeastBytes{}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.Join(ErrInvalidConfig, errors.New("brokers is required"))
	}
	if c.Topic == "" {
		return errors.Join(ErrInvalidConfig, errors.New("topic is required"))
	}
	if c.RetryLimit < 0 || c.HandleRetries < 0 {
		return errors.Join(ErrInvalidConfig, errors.New("retry limits cannot be negative"))
	}
	return nil
}

// DefaultConfig returns a Config with default settings
func DefaultConfig() *Config {
	return &Config{
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: 100 * time.Millisecond,
		BatchSize:      100,
		BatchTimeout:   10 * time.Millisecond,
		WriteTimeout:   5 * time.Second,
		RequiredAcks:   -1, // 等待所有副本確認
		RetryLimit:     3,
		RetryDelay:     200 * time.Millisecond,
		RetryFactor:    2,
		WorkerNum:      4,
		HandleRetries:  3,
		HandleBackoff:  200 * time.Millisecond,
	}
}
