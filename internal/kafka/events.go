package kafka

import (
	"strconv"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// CheckoutPublisher ships checkout lifecycle envelopes through a Producer,
// keyed so that all events of one transaction land on one partition.
type CheckoutPublisher struct {
	P *Producer
}

func (c *CheckoutPublisher) PublishEvent(ev checkout.Envelope) {
	c.P.Publish(checkout.PartitionKey(ev), MustMarshal(ev),
		kafka.Header{Key: HeaderEventType, Value: []byte(ev.EventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(ev.EventVersion))},
	)
}
