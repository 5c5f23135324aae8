package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"GRPC_PORT", "KAFKA_BROKERS", "SIMULATION_CACHE_TTL", "OVERDUE_SWEEP_CRON", "MIGRATIONS_DIR", "GRPC_REFLECTION"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":9091", cfg.GRPCAddr())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debt.events", cfg.Kafka.EventsTopic)
	assert.Equal(t, 10*time.Minute, cfg.Redis.SimulationTTL)
	assert.Equal(t, "15 0 * * *", cfg.Scheduler.OverdueSpec)
	assert.False(t, cfg.TLSEnabled())
	assert.Equal(t, "internal/infrastructure/persistence/postgres/migrations", cfg.MigrationsDir)
	assert.False(t, cfg.GRPCReflection)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GRPC_PORT", "7000")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("SIMULATION_CACHE_TTL", "90s")
	t.Setenv("DB_MAX_CONNS", "not-a-number")
	t.Setenv("GRPC_REFLECTION", "true")

	cfg := Load()

	assert.Equal(t, 7000, cfg.GRPCPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.TLS)
	assert.Equal(t, 90*time.Second, cfg.Redis.SimulationTTL)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.True(t, cfg.GRPCReflection)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DB:    DatabaseConfig{Password: "secret"},
		Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}},
		JWT:   JWTConfig{Secret: "s"},
	}
	require.NoError(t, valid.Validate())

	missing := Config{}
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	halfTLS := valid
	halfTLS.TLS.CertFile = "cert.pem"
	assert.ErrorContains(t, halfTLS.Validate(), "TLS_CERT_FILE")
}
