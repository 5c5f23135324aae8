package testutil

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// KafkaBroker is a single-node Kafka started for a test.
type KafkaBroker struct {
	container *kafka.KafkaContainer
	Brokers   []string
}

// NewKafkaBroker starts a Kafka container, creates topics with one partition
// each, and terminates the container when the test ends.
func NewKafkaBroker(ctx context.Context, t *testing.T, topics ...string) *KafkaBroker {
	t.Helper()

	c, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.6.1",
		kafka.WithClusterID("debt-test"),
	)
	if err != nil {
		t.Fatalf("start kafka container: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Terminate(stopCtx); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := c.Brokers(ctx)
	if err != nil {
		t.Fatalf("kafka brokers: %v", err)
	}
	kb := &KafkaBroker{container: c, Brokers: brokers}
	kb.CreateTopics(ctx, t, topics...)
	return kb
}

// CreateTopics creates single-partition topics on the broker.
func (kb *KafkaBroker) CreateTopics(ctx context.Context, t *testing.T, topics ...string) {
	t.Helper()
	if len(topics) == 0 {
		return
	}

	conn, err := kafkago.DialContext(ctx, "tcp", kb.Brokers[0])
	if err != nil {
		t.Fatalf("dial kafka: %v", err)
	}
	defer conn.Close()

	cfgs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		cfgs = append(cfgs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := conn.CreateTopics(cfgs...); err != nil {
		t.Fatalf("create topics %v: %v", topics, err)
	}
}
