package message

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Header 代表 Kafka 消息的標頭，例如 event_type
type Header struct {
	Key   string
	Value []byte
}

// Message 代表一個 Kafka 消息
// Key 決定分區，相同 Key 的消息保證順序
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Headers   []Header
	Time      time.Time
}

// GetHeader 回傳第一個符合 key 的標頭值
func (m Message) GetHeader(key string) (string, bool) {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// ToKafkaMessage converts our Message to kafka-go Message
func (m Message) ToKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, len(m.Headers))
	for i, h := range m.Headers {
		headers[i] = kafka.Header{
			Key:   h.Key,
			Value: h.Value,
		}
	}

	return kafka.Message{
		Key:       m.Key,
		Value:     m.Value,
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
		Headers:   headers,
		Time:      m.Time,
	}
}

// FromKafkaMessage converts kafka-go Message to our Message
func FromKafkaMessage(km kafka.Message) Message {
	headers := make([]Header, len(km.Headers))
	for i, h := range km.Headers {
		headers[i] = Header{
			Key:   h.Key,
			Value: h.Value,
		}
	}

	return Message{
		Key:       km.Key,
		Value:     km.Value,
		Topic:     km.Topic,
		Partition: km.Partition,
		Offset:    km.Offset,
		Headers:   headers,
		Time:      km.Time,
	}
}
