package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is where lifecycle audit events land when no override is
// configured.
const DefaultTopic = "reentry.audit.events"

// KafkaStore appends audit events to a Kafka topic. ListByParticipant is not
// supported; query the downstream consumer instead.
type KafkaStore struct {
	client *kgo.Client
	topic  string
}

// NewKafkaStore connects to the brokers and makes sure the topic exists.
func NewKafkaStore(ctx context.Context, brokers []string, topic string) (*KafkaStore, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := ensureTopic(ctx, client, topic); err != nil {
		client.Close()
		return nil, err
	}
	return &KafkaStore{client: client, topic: topic}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client, topic string) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.ParticipantID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (s *KafkaStore) ListByParticipant(context.Context, string) ([]Event, error) {
	return nil, errors.New("kafka audit store is write-only")
}

// Close flushes buffered records and releases the client.
func (s *KafkaStore) Close(ctx context.Context) error {
	if err := s.client.Flush(ctx); err != nil {
		s.client.Close()
		return fmt.Errorf("flush audit events: %w", err)
	}
	s.client.Close()
	return nil
}
