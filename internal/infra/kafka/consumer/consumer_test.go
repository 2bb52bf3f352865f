package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	ka_err "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/errors"
	"github.com/RoyceAzure/lab/devstore/internal/infra/kafka/message"
	mock_consumer "github.com/RoyceAzure/lab/devstore/internal/infra/kafka/consumer/mock"
)

var errTemporary = errors.New("temporary")

func generateTestMessage(n, partitions int) []kafka.Message {
	msgs := make([]kafka.Message, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, kafka.Message{
			Topic:     "cart-events",
			Partition: i % partitions,
			Offset:    int64(i),
			Key:       []byte(fmt.Sprintf("cart-%d", i)),
			Value:     []byte(fmt.Sprintf(`{"cartId":"cart-%d"}`, i)),
		})
	}
	return msgs
}

// 讀完所有訊息後回傳 io.EOF
func feedReader(reader *mock_consumer.MockKafkaReader, msgs []kafka.Message) {
	in := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		in <- m
	}
	close(in)
	reader.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			select {
			case m, ok := <-in:
				if !ok {
					return kafka.Message{}, io.EOF
				}
				return m, nil
			case <-ctx.Done():
				return kafka.Message{}, ctx.Err()
			}
		}).AnyTimes()
}

type commitRecorder struct {
	mu      sync.Mutex
	offsets map[int64]int
}

func recordCommits(reader *mock_consumer.MockKafkaReader) *commitRecorder {
	r := &commitRecorder{offsets: make(map[int64]int)}
	reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msgs ...kafka.Message) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, m := range msgs {
				r.offsets[m.Offset]++
			}
			return nil
		}).AnyTimes()
	return r
}

func (r *commitRecorder) committed() map[int64]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[int64]int, len(r.offsets))
	for k, v := range r.offsets {
		out[k] = v
	}
	return out
}

func waitStopped(t *testing.T, c *Consumer) {
	select {
	case <-c.C():
	case <-time.After(10 * time.Second):
		require.Fail(t, "timeout: consumer did not stop within 10 seconds")
	}
}

func TestConsumer_AllProcessedAndCommitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	msgs := generateTestMessage(200, 6)
	reader := mock_consumer.NewMockKafkaReader(ctrl)
	feedReader(reader, msgs)
	commits := recordCommits(reader)

	var mu sync.Mutex
	lastOffset := make(map[int]int64)
	outOfOrder := false
	processed := 0

	c := NewConsumer(reader, ProcesserFunc(func(ctx context.Context, msg message.Message) error {
		mu.Lock()
		defer mu.Unlock()
		if last, ok := lastOffset[msg.Partition]; ok && msg.Offset <= last {
			outOfOrder = true
		}
		lastOffset[msg.Partition] = msg.Offset
		processed++
		return nil
	}), WithWorkerNum(4), WithCommitInterval(10*time.Millisecond))

	require.NoError(t, c.Start(context.Background()))
	waitStopped(t, c)

	require.Equal(t, 200, processed)
	require.False(t, outOfOrder)

	got := commits.committed()
	require.Len(t, got, 200)
	for _, m := range msgs {
		require.Equal(t, 1, got[m.Offset])
	}
}

func TestConsumer_ErrorHandling(t *testing.T) {
	testCases := []struct {
		name         string
		failTimes    int
		err          error
		wantAttempts int
		wantHandled  bool
	}{
		{name: "retryable error recovers", failTimes: 2, err: errTemporary, wantAttempts: 3},
		{name: "retryable error exhausts retries", failTimes: 100, err: errTemporary, wantAttempts: 4, wantHandled: true},
		{name: "terminal error not retried", failTimes: 100, err: errors.New("not found"), wantAttempts: 1, wantHandled: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			msgs := generateTestMessage(1, 1)
			reader := mock_consumer.NewMockKafkaReader(ctrl)
			feedReader(reader, msgs)
			commits := recordCommits(reader)

			attempts := 0
			var handled []ConsumeError
			c := NewConsumer(reader,
				ProcesserFunc(func(ctx context.Context, msg message.Message) error {
					attempts++
					if attempts <= tc.failTimes {
						return tc.err
					}
					return nil
				}),
				WithHandleRetries(3, time.Millisecond),
				WithRetryPolicy(func(err error) bool { return errors.Is(err, errTemporary) }),
				WithErrorHandler(func(e ConsumeError) { handled = append(handled, e) }),
			)

			require.NoError(t, c.Start(context.Background()))
			waitStopped(t, c)

			require.Equal(t, tc.wantAttempts, attempts)
			if tc.wantHandled {
				require.Len(t, handled, 1)
				require.ErrorIs(t, handled[0].Err, tc.err)
			} else {
				require.Empty(t, handled)
			}
			require.Equal(t, 1, commits.committed()[0])
		})
	}
}

func TestConsumer_StopWithoutMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reader := mock_consumer.NewMockKafkaReader(ctrl)
	reader.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}).AnyTimes()

	c := NewConsumer(reader, ProcesserFunc(func(ctx context.Context, msg message.Message) error {
		return nil
	}))
	require.NoError(t, c.Start(context.Background()))
	require.ErrorIs(t, c.Start(context.Background()), ka_err.ErrConsumerAlreadyRunning)

	require.NoError(t, c.Stop(5*time.Second))
	waitStopped(t, c)
}

func TestConsumer_CanceledWhileRetryingIsNotCommitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	msg := generateTestMessage(1, 1)[0]
	delivered := false
	reader := mock_consumer.NewMockKafkaReader(ctrl)
	reader.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			if !delivered {
				delivered = true
				return msg, nil
			}
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}).AnyTimes()
	reader.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Times(0)

	started := make(chan struct{})
	var once sync.Once
	c := NewConsumer(reader,
		ProcesserFunc(func(ctx context.Context, msg message.Message) error {
			once.Do(func() { close(started) })
			return errTemporary
		}),
		WithHandleRetries(100, time.Second),
		WithRetryPolicy(func(err error) bool { return true }),
	)
	require.NoError(t, c.Start(context.Background()))

	<-started
	require.NoError(t, c.Stop(5*time.Second))
}
