package config

import (
	"testing"
	"time"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "GATEWAY_TIMEOUT", "DRAFT_BACKEND", "DRAFT_KEY", "KAFKA_BROKERS", "TRACKER_WORKERS", "CHECKOUT_EVENTS_TOPIC"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "redis", cfg.DraftBackend)
	assert.Equal(t, "tt.checkout", cfg.DraftKey)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.TrackerWorkers)
	assert.Equal(t, checkout.TopicCheckoutEvents, cfg.EventsTopic)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("DRAFT_BACKEND", "Postgres")
	t.Setenv("KAFKA_BROKERS", " a:1, ,b:2 ")
	t.Setenv("TRACKER_WORKERS", "2")

	cfg := Load()

	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "postgres", cfg.DraftBackend)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.KafkaBrokers)
	assert.Equal(t, 2, cfg.TrackerWorkers)
}

func TestLoad_UnparseableFallsBack(t *testing.T) {
	t.Setenv("GATEWAY_TIMEOUT", "soon")
	t.Setenv("TRACKER_WORKERS", "many")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 4, cfg.TrackerWorkers)
}
