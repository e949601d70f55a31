// Package kafka publishes audit records to a Kafka topic for deployments
// where the audit trail is materialized by a downstream consumer. The
// topic is the source of truth; this sink is append-only.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"keystone/internal/audit"
)

// Store produces audit records to one topic, keyed by actor so a consumer
// preserves per-actor ordering.
type Store struct {
	client *kgo.Client
	topic  string
}

// New connects to the brokers and ensures the topic exists. A topic that
// already exists is not an error.
func New(ctx context.Context, brokers []string, topic string) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopic(ctx, 1, 1, nil, topic); err != nil && !strings.Contains(err.Error(), "TOPIC_ALREADY_EXISTS") {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic %q: %w", topic, err)
	}

	return &Store{client: client, topic: topic}, nil
}

// Append publishes one record synchronously. The Recorder already runs this
// off the request path, so synchronous delivery keeps failure reporting
// simple without slowing responses.
func (s *Store) Append(ctx context.Context, record audit.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	res := s.client.ProduceSync(ctx, &kgo.Record{
		Topic: s.topic,
		Key:   []byte(record.ActorID),
		Value: payload,
	})
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the client.
func (s *Store) Close() {
	s.client.Close()
}
