// Package kafka publishes assignment lifecycle events for downstream
// consumers (audit, analytics). Publishing is best effort: the engine
// commits first and an unreachable broker never rolls back an assignment.
package kafka

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/IBM/sarama"
)

// Producer wraps a Sarama sync producer bound to one topic. A nil
// Producer is valid and drops events, so the service runs without Kafka
// configured.
type Producer struct {
	sp    sarama.SyncProducer
	topic string
}

// NewProducer creates a Kafka producer, or (nil, nil) when brokers/topic
// are not configured.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 || strings.TrimSpace(topic) == "" {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sp: sp, topic: topic}, nil
}

// newWithSyncProducer wires an existing sync producer; used by tests.
func newWithSyncProducer(sp sarama.SyncProducer, topic string) *Producer {
	return &Producer{sp: sp, topic: topic}
}

// Publish sends one event, keyed by driver id so per-driver history stays
// ordered within a partition.
func (p *Producer) Publish(ev EventDTO) error {
	if p == nil {
		return nil
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(ev.DriverID, 10)),
		Value: sarama.ByteEncoder(value),
	}
	_, _, err = p.sp.SendMessage(msg)
	return err
}

// Close shuts the underlying producer down.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.sp.Close()
}
