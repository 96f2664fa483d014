package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig selects the brokers and topic for a KafkaSink.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes updates as JSON, keyed by stock so that each
// instrument stays ordered within its partition.
//
// Writes are asynchronous: Publish queues the message and returns, and
// the writer batches in the background. A failed delivery is reported
// by the next Publish and by Close.
type KafkaSink struct {
	writer messageWriter

	mu  sync.Mutex
	err error
}

func NewKafkaSink(cfg KafkaConfig) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}
	k := &KafkaSink{}
	k.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchTimeout: 10 * time.Millisecond,
		Completion:   k.delivered,
	}
	return k, nil
}

// delivered is called from the writer's goroutines once per batch.
func (k *KafkaSink) delivered(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err == nil {
		k.err = fmt.Errorf("kafka: delivery of %d messages failed: %w", len(msgs), err)
	}
}

// Err returns the first delivery failure, if any.
func (k *KafkaSink) Err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.err
}

type kafkaEvent struct {
	Session     string `json:"session"`
	Count       uint64 `json:"count"`
	Stock       string `json:"stock"`
	Locate      uint16 `json:"locate"`
	TimestampNs int64  `json:"timestamp_ns"`
	RecvNs      int64  `json:"recv_ns"`
	BidPrice    string `json:"bid_price"`
	BidQty      int64  `json:"bid_qty"`
	OfferPrice  string `json:"offer_price"`
	OfferQty    int64  `json:"offer_qty"`
}

func encodeEvent(u Update) ([]byte, error) {
	return json.Marshal(kafkaEvent{
		Session:     u.Session,
		Count:       u.Count,
		Stock:       u.Stock.String(),
		Locate:      u.Header.StockLocate,
		TimestampNs: int64(u.Header.Timestamp),
		RecvNs:      u.Recv.UnixNano(),
		BidPrice:    u.Bid.Price.String(),
		BidQty:      u.Bid.Qty,
		OfferPrice:  u.Offer.Price.String(),
		OfferQty:    u.Offer.Qty,
	})
}

func (k *KafkaSink) Publish(ctx context.Context, u Update) error {
	if err := k.Err(); err != nil {
		return err
	}
	value, err := encodeEvent(u)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(u.Stock.String()), Value: value})
}

// Close flushes queued messages and reports any delivery failure.
func (k *KafkaSink) Close() error {
	err := k.writer.Close()
	return errors.Join(err, k.Err())
}
