package tracker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func setupService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return &Service{Redis: client, Now: func() time.Time { return fixedNow }}, mr
}

func message(t *testing.T, id, eventType string, payload any) kafkago.Message {
	t.Helper()
	p, err := json.Marshal(payload)
	require.NoError(t, err)
	b, err := json.Marshal(checkout.Envelope{
		EventID:      id,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   fixedNow,
		Payload:      p,
	})
	require.NoError(t, err)
	return kafkago.Message{Value: b}
}

func TestHandleCheckoutEvent_ProjectsLifecycle(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", checkout.EventTransactionCreated,
		checkout.TransactionCreatedPayload{Reference: "TT-1", IdempotencyKey: "k"})))
	st, err := svc.Status(ctx, "TT-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusPending, st.Status)
	assert.Equal(t, checkout.EventTransactionCreated, st.EventType)
	assert.Equal(t, fixedNow, st.UpdatedAt)

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e2", checkout.EventStatusRefreshed,
		checkout.StatusPayload{Reference: "TT-1", Status: checkout.StatusApproved})))
	st, err = svc.Status(ctx, "TT-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusApproved, st.Status)

	ttl := mr.TTL("tx_status:TT-1")
	assert.Equal(t, 24*time.Hour, ttl)
	assert.True(t, mr.Exists("dedup:tracker:e1"))
}

func TestHandleCheckoutEvent_Dedup(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()
	msg := message(t, "e1", checkout.EventPaymentSubmitted,
		checkout.StatusPayload{Reference: "TT-1", Status: checkout.StatusPending})

	require.NoError(t, svc.HandleCheckoutEvent(ctx, msg))
	mr.Del("tx_status:TT-1")

	// redelivery of the same event id is ignored
	require.NoError(t, svc.HandleCheckoutEvent(ctx, msg))
	_, err := svc.Status(ctx, "TT-1")
	assert.ErrorIs(t, err, ErrUnknownReference)
}

func TestHandleCheckoutEvent_SettledIsFinal(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", checkout.EventStatusRefreshed,
		checkout.StatusPayload{Reference: "TT-1", Status: checkout.StatusDeclined})))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e2", checkout.EventPaymentSubmitted,
		checkout.StatusPayload{Reference: "TT-1", Status: checkout.StatusPending})))

	st, err := svc.Status(ctx, "TT-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusDeclined, st.Status)
	assert.Equal(t, checkout.EventPaymentSubmitted, st.EventType)
}

func TestHandleCheckoutEvent_FailureKeepsLastStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", checkout.EventPaymentSubmitted,
		checkout.StatusPayload{Reference: "TT-1", Status: checkout.StatusPending})))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e2", checkout.EventCheckoutFailed,
		checkout.CheckoutFailedPayload{Reference: "TT-1", Stage: checkout.StageStatus, Reason: "timeout"})))

	st, err := svc.Status(ctx, "TT-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusPending, st.Status)
	assert.Equal(t, checkout.EventCheckoutFailed, st.EventType)
}

func TestHandleCheckoutEvent_IgnoresWithoutReference(t *testing.T) {
	svc, mr := setupService(t)
	ctx := context.Background()

	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e1", checkout.EventCheckoutFailed,
		checkout.CheckoutFailedPayload{Stage: checkout.StageCreate, Reason: "400"})))
	require.NoError(t, svc.HandleCheckoutEvent(ctx, message(t, "e2", "SomethingElse", map[string]string{})))

	for _, k := range mr.Keys() {
		assert.NotContains(t, k, "tx_status:")
	}
}

func TestHandleCheckoutEvent_PoisonMessageIsDropped(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.HandleCheckoutEvent(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.NoError(t, err)
}

func TestHandleCheckoutEvent_RedisDownIsRetryable(t *testing.T) {
	svc, mr := setupService(t)
	mr.Close()

	err := svc.HandleCheckoutEvent(context.Background(), message(t, "e1", checkout.EventTransactionCreated,
		checkout.TransactionCreatedPayload{Reference: "TT-1"}))
	assert.Error(t, err)
}

func TestStatus_Unknown(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownReference)
}
