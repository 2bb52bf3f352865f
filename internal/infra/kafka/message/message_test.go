package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessage_KafkaConversion(t *testing.T) {
	now := time.Now()
	msg := Message{
		Key:       []byte("cart-1"),
		Value:     []byte(`{"cartId":"cart-1"}`),
		Topic:     "cart-events",
		Partition: 2,
		Offset:    42,
		Headers:   []Header{{Key: "event_type", Value: []byte("CartCheckedOut")}},
		Time:      now,
	}

	got := FromKafkaMessage(msg.ToKafkaMessage())
	require.Equal(t, msg, got)
}

func TestMessage_GetHeader(t *testing.T) {
	msg := Message{Headers: []Header{
		{Key: "event_type", Value: []byte("CartCheckedOut")},
		{Key: "event_type", Value: []byte("ignored")},
	}}

	v, ok := msg.GetHeader("event_type")
	require.True(t, ok)
	require.Equal(t, "CartCheckedOut", v)

	_, ok = msg.GetHeader("missing")
	require.False(t, ok)
}
