// Package changefeed publishes row-change events for the data collections,
// mirroring a BaaS real-time feed over Kafka. Repositories publish on every
// write; interested subsystems consume and react.
package changefeed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Op is the kind of row change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event identifies one changed row. Payloads stay id-only: consumers
// re-read the row so they never act on stale data.
type Event struct {
	Collection string    `json:"collection"`
	Op         Op        `json:"op"`
	RowID      string    `json:"rowId"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns a producer, or nil when no brokers are configured so
// callers can wire it unconditionally.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Collection + ":" + ev.RowID),
		Value: data,
		Time:  ev.OccurredAt,
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Handler reacts to one decoded change event.
type Handler func(ctx context.Context, ev Event)

type Consumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *log.Logger) *Consumer {
	if len(brokers) == 0 {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: logger}
}

// Consume reads events until the context is cancelled. Undecodable messages
// are logged and skipped.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Printf("read change event: %v", err)
			continue
		}
		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Printf("decode change event: %v", err)
			continue
		}
		handler(ctx, ev)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
