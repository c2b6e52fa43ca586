// Package tracker projects checkout lifecycle events into a per-transaction
// status cache in Redis.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	kafkax "github.com/ariefcatur/go-checkout-session/internal/kafka"
	"github.com/ariefcatur/go-checkout-session/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

var ErrUnknownReference = errors.New("no status recorded for reference")

// TxStatus is the cached view of one transaction.
type TxStatus struct {
	Status    checkout.Status `json:"status"`
	EventType string          `json:"event_type"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Service struct {
	Redis       *redis.Client
	ServiceName string // dedup namespace, "tracker" by default
	Now         func() time.Time
}

// HandleCheckoutEvent is installed as the consumer handler.
func (s *Service) HandleCheckoutEvent(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message, nothing to retry
		log.Printf("tracker: drop undecodable message offset=%d: %v", m.Offset, err)
		return nil
	}
	if env.EventID == "" {
		return nil
	}

	// 2) dedup on event id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.namespace(), env.EventID)
	first, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	// 3) project; release the dedup mark on failure so a redelivery retries
	if err := s.apply(ctx, env); err != nil {
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	return nil
}

func (s *Service) apply(ctx context.Context, env checkout.Envelope) error {
	var status checkout.Status
	var reference string

	switch env.EventType {
	case checkout.EventTransactionCreated:
		p, err := kafkax.UnwrapPayload[checkout.TransactionCreatedPayload](env.Payload)
		if err != nil {
			return nil
		}
		reference, status = p.Reference, checkout.StatusPending
	case checkout.EventPaymentSubmitted, checkout.EventStatusRefreshed:
		p, err := kafkax.UnwrapPayload[checkout.StatusPayload](env.Payload)
		if err != nil {
			return nil
		}
		reference, status = p.Reference, p.Status
	case checkout.EventCheckoutFailed:
		p, err := kafkax.UnwrapPayload[checkout.CheckoutFailedPayload](env.Payload)
		if err != nil {
			return nil
		}
		reference = p.Reference
	case checkout.EventTransactionCleared:
		p, err := kafkax.UnwrapPayload[checkout.TransactionClearedPayload](env.Payload)
		if err != nil {
			return nil
		}
		reference = p.Reference
	default:
		return nil // ignore
	}
	if reference == "" {
		return nil
	}

	prev, err := s.Status(ctx, reference)
	if err != nil && !errors.Is(err, ErrUnknownReference) {
		return err
	}
	next := TxStatus{Status: status, EventType: env.EventType, UpdatedAt: s.now()}
	if status == "" {
		next.Status = prev.Status
	}
	// a settled status is final; late PENDING events must not regress it
	if prev.Status.IsSettled() && !next.Status.IsSettled() {
		next.Status = prev.Status
	}

	b, err := json.Marshal(next)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, fmt.Sprintf(redisx.KeyTxStatus, reference), b, redisx.TTLTxStatus).Err()
}

// Status returns the cached status of a transaction.
func (s *Service) Status(ctx context.Context, reference string) (TxStatus, error) {
	b, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeyTxStatus, reference)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TxStatus{}, ErrUnknownReference
	}
	if err != nil {
		return TxStatus{}, err
	}
	var st TxStatus
	if err := json.Unmarshal(b, &st); err != nil {
		return TxStatus{}, fmt.Errorf("decode status %s: %w", reference, err)
	}
	return st, nil
}

func (s *Service) namespace() string {
	if s.ServiceName != "" {
		return s.ServiceName
	}
	return "tracker"
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
