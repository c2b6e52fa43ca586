package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Draft is the redacted subset of a Session that is written to durable
// storage. Card data, the product snapshot, the preview and the status are
// never part of it.
type Draft struct {
	ProductID      string    `json:"productId,omitempty"`
	Quantity       *int      `json:"quantity,omitempty"`
	Customer       *Customer `json:"customer,omitempty"`
	Delivery       *Delivery `json:"delivery,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
}

// Redact projects s onto its persistable fields.
func Redact(s Session) Draft {
	q := s.Quantity
	d := Draft{
		ProductID:      s.ProductID,
		Quantity:       &q,
		Reference:      s.Reference,
		IdempotencyKey: s.IdempotencyKey,
	}
	if s.Customer != nil {
		c := *s.Customer
		d.Customer = &c
	}
	if s.Delivery != nil {
		dl := *s.Delivery
		d.Delivery = &dl
	}
	return d
}

var ErrNoDraft = errors.New("no checkout draft stored")

// DraftStorage is a single durable slot holding the serialized draft.
// LoadDraft returns ErrNoDraft when the slot is empty.
type DraftStorage interface {
	SaveDraft(ctx context.Context, data []byte) error
	LoadDraft(ctx context.Context) ([]byte, error)
}

// DraftClearer is implemented by storages that can drop the stored draft.
type DraftClearer interface {
	ClearDraft(ctx context.Context) error
}

// Persister writes the redacted draft after every Store transition.
type Persister struct {
	Storage DraftStorage
	Timeout time.Duration
}

// OnChange is meant to be passed to Store.Subscribe.
func (p *Persister) OnChange(s Session) {
	b, err := json.Marshal(Redact(s))
	if err != nil {
		log.Printf("checkout draft marshal: %v", err)
		return
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.Storage.SaveDraft(ctx, b); err != nil {
		log.Printf("checkout draft save: %v", err)
	}
}

const draftSchema = `{
  "type": "object",
  "properties": {
    "productId":      {"type": "string"},
    "quantity":       {"type": "integer"},
    "customer":       {"type": "object"},
    "delivery":       {"type": "object"},
    "reference":      {"type": "string"},
    "idempotencyKey": {"type": "string"}
  }
}`

var draftSchemaLoader = gojsonschema.NewStringLoader(draftSchema)

// LoadDraft reads the persisted draft. Empty, unreadable or malformed
// content is reported as "no draft" rather than as an error.
func LoadDraft(ctx context.Context, storage DraftStorage) (*Draft, bool) {
	raw, err := storage.LoadDraft(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoDraft) {
			log.Printf("checkout draft load: %v", err)
		}
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	res, err := gojsonschema.Validate(draftSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil || !res.Valid() {
		log.Printf("checkout draft ignored: malformed content")
		return nil, false
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		log.Printf("checkout draft ignored: %v", err)
		return nil, false
	}
	return &d, true
}

// MemoryDraftStorage keeps the draft in process memory.
type MemoryDraftStorage struct {
	mu   sync.Mutex
	data []byte
}

func (m *MemoryDraftStorage) SaveDraft(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *MemoryDraftStorage) LoadDraft(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNoDraft
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryDraftStorage) ClearDraft(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
