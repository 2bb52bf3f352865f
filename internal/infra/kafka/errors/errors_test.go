package errors

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	connRefused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	testCases := []struct {
		name      string
		err       error
		conn      bool
		fatal     bool
		temporary bool
	}{
		{name: "nil", err: nil},
		{name: "connection refused", err: connRefused, conn: true, temporary: true},
		{name: "wrapped connection", err: NewKafkaError("Produce", "t", connRefused), conn: true, temporary: true},
		{name: "leader not available", err: kafka.LeaderNotAvailable, temporary: true},
		{name: "topic auth", err: NewKafkaError("Produce", "t", kafka.TopicAuthorizationFailed), fatal: true},
		{name: "deadline", err: context.DeadlineExceeded, temporary: true},
		{name: "canceled", err: context.Canceled},
		{name: "plain", err: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.conn, IsConnectionError(tc.err))
			require.Equal(t, tc.fatal, IsFatalError(tc.err))
			require.Equal(t, tc.temporary, IsTemporaryError(tc.err))
		})
	}
}

func TestKafkaError_Unwrap(t *testing.T) {
	err := NewKafkaError("Produce", "cart-events", kafka.RequestTimedOut)
	require.ErrorIs(t, err, kafka.RequestTimedOut)
	require.Contains(t, err.Error(), "cart-events")
}
