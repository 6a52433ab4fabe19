package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed++
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "orders")

	err := p.Publish(context.Background(), OrderEvent{Type: OrderCreated, OrderID: "o1", UserID: "u1", TotalAmount: 138})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "o1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, OrderCreated, string(msg.Headers[0].Value))

	var got OrderEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, 138.0, got.TotalAmount)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestKafkaPublisher_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&fakeWriter{err: boom}, "orders")

	err := p.Publish(context.Background(), OrderEvent{Type: OrderPaid, OrderID: "o1"})
	assert.ErrorIs(t, err, boom)
}

func TestKafkaPublisher_CloseOnce(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, "orders")
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)
	assert.Error(t, p.Publish(context.Background(), OrderEvent{OrderID: "o1"}))
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Topic: "orders"}, zerolog.Nop())
	assert.Error(t, err)

	p, err := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "orders"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
