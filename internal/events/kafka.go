package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter часть kafka.Writer, которой пользуется издатель
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	MaxAttempts  int
}

// KafkaPublisher синхронно пишет события заказов в один топик
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	closed atomic.Bool
}

func NewKafkaPublisher(cfg KafkaConfig, log zerolog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	kl := log.With().Str("component", "kafka").Logger()
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			kl.Error().Msgf(msg, args...)
		}),
	}
	return newKafkaPublisher(writer, cfg.Topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

var _ Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) Publish(ctx context.Context, e OrderEvent) error {
	if p.closed.Load() {
		return fmt.Errorf("kafka publisher closed")
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(e.OrderID),
		Value:   value,
		Time:    e.OccurredAt,
		Headers: []kafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", e.Type, p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
