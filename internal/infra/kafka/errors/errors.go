package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"syscall"

	"github.com/segmentio/kafka-go"
)

var (
	ErrClientClosed           = errors.New("kafka client is closed")
	ErrConsumerAlreadyRunning = errors.New("consumer is already running")
	ErrStopTimeout            = errors.New("kafka consumer stop timeout")
)

// KafkaError 保留 topic 方便從 log 追查
type KafkaError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka %s %s: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

func NewKafkaError(operation, topic string, err error) error {
	return &KafkaError{Operation: operation, Topic: topic, Err: err}
}

// 權限類錯誤重試也不會成功
var fatalCodes = []kafka.Error{
	kafka.TopicAuthorizationFailed,
	kafka.GroupAuthorizationFailed,
	kafka.ClusterAuthorizationFailed,
	kafka.SASLAuthenticationFailed,
}

var connErrnos = []syscall.Errno{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ECONNABORTED,
	syscall.ENETUNREACH,
	syscall.ENETRESET,
	syscall.EPIPE,
	syscall.ETIMEDOUT,
}

// IsConnectionError 網路層錯誤，context 取消或逾時不算
// kafka.Error 也實作 net.Error，需先排除 broker 回傳的錯誤碼
func IsConnectionError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && slices.Contains(connErrnos, errno) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func IsFatalError(err error) bool {
	var kerr kafka.Error
	return errors.As(err, &kerr) && slices.Contains(fatalCodes, kerr)
}

// IsTemporaryError broker 回傳的錯誤以 kafka-go 的 Temporary 判斷
// 連線錯誤也視為可重試，writer 會自行重連
func IsTemporaryError(err error) bool {
	if err == nil || IsFatalError(err) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || IsConnectionError(err) {
		return true
	}
	var kerr kafka.Error
	return errors.As(err, &kerr) && kerr.Temporary()
}
