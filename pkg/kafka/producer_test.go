package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092", "localhost:9093"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %d", len(p.brokers))
	}
	if p.transport != nil {
		t.Error("expected default transport without TLS or SASL")
	}
	if len(p.writers) != 0 {
		t.Errorf("expected no writers before first publish, got %d", len(p.writers))
	}
}

func TestNewProducer_RejectsUnknownSASL(t *testing.T) {
	_, err := NewProducer(Config{
		Brokers:       []string{"kafka:9092"},
		SASLEnabled:   true,
		SASLMechanism: "GSSAPI",
	})
	if err == nil {
		t.Fatal("expected error for unsupported mechanism")
	}
}

func TestProducer_WriterPerTopic(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"kafka:9092"}, TLS: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := p.writer("debt.events")
	b := p.writer("debt.events")
	c := p.writer("other")
	if a != b {
		t.Error("expected the writer to be reused for the same topic")
	}
	if a == c {
		t.Error("expected distinct writers for distinct topics")
	}
	if _, ok := a.Balancer.(*kafkago.Hash); !ok {
		t.Errorf("expected key hash balancer, got %T", a.Balancer)
	}
	if a.Transport == nil {
		t.Error("expected TLS transport to be set on writer")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestPublish_NoMessages(t *testing.T) {
	p, _ := NewProducer(Config{Brokers: []string{"kafka:9092"}})
	if err := p.Publish(context.Background(), "debt.events"); err != nil {
		t.Fatalf("expected nil error for empty publish, got %v", err)
	}
	if len(p.writers) != 0 {
		t.Error("expected no writer for empty publish")
	}
}

func TestMessageConversion(t *testing.T) {
	msg := Message{
		Key:     []byte("loan-123"),
		Value:   []byte(`{"amount":"100.00"}`),
		Headers: map[string]string{"event_type": "debt.loan.payment_recorded", "owner_id": "owner-1"},
	}

	km := toKafkaMessage(msg)
	km.Topic = "debt.events"
	km.Offset = 42
	back := fromKafkaMessage(km)

	if string(back.Key) != "loan-123" {
		t.Errorf("key = %s", back.Key)
	}
	if back.Headers["owner_id"] != "owner-1" || back.Headers["event_type"] != "debt.loan.payment_recorded" {
		t.Errorf("headers = %v", back.Headers)
	}
	if back.Topic != "debt.events" || back.Offset != 42 {
		t.Errorf("topic/offset = %s/%d", back.Topic, back.Offset)
	}
}

func TestConfigMechanism(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantNil bool
		wantErr bool
	}{
		{name: "disabled", cfg: Config{}, wantNil: true},
		{name: "plain default", cfg: Config{SASLEnabled: true, SASLUsername: "u", SASLPassword: "p"}},
		{name: "scram 256", cfg: Config{SASLEnabled: true, SASLMechanism: "SCRAM-SHA-256", SASLUsername: "u", SASLPassword: "p"}},
		{name: "scram 512", cfg: Config{SASLEnabled: true, SASLMechanism: "SCRAM-SHA-512", SASLUsername: "u", SASLPassword: "p"}},
		{name: "unknown", cfg: Config{SASLEnabled: true, SASLMechanism: "OAUTHBEARER"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.cfg.mechanism()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (m == nil) != tt.wantNil {
				t.Errorf("mechanism = %v, wantNil %v", m, tt.wantNil)
			}
		})
	}
}

func TestRunWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := runWithRetry(ctx, 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		err := runWithRetry(ctx, 5, time.Millisecond, func() error {
			calls++
			return Permanent(errors.New("bad payload"))
		})
		if !IsPermanent(err) || calls != 1 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		err := runWithRetry(ctx, 2, time.Millisecond, func() error {
			calls++
			return errors.New("still down")
		})
		if err == nil || calls != 2 {
			t.Fatalf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("honours cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := runWithRetry(cctx, 3, time.Hour, func() error { return errors.New("down") })
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})

	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
