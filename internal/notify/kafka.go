package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const kafkaWriteTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits BalanceChanged events keyed by user id, so all
// updates of one user land on one partition in order. Writes are
// synchronous; wrap it in Async on the request path.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		now: time.Now,
	}
}

func (p *KafkaPublisher) Notify(ctx context.Context, userID string, balance int64) {
	err := p.publish(ctx, BalanceChanged{
		UserID:     userID,
		Balance:    balance,
		OccurredAt: p.now().UTC(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "publish balance change failed",
			"user_id", userID,
			"balance", balance,
			"error", err)
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, ev BalanceChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()

	err = p.writer.WriteMessages(wctx, kafka.Message{
		Key:   []byte(ev.UserID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
