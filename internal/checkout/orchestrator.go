package checkout

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Orchestrator drives the checkout steps against the gateway and folds the
// responses back into the Store.
type Orchestrator struct {
	Store   *Store
	Gateway Gateway
	Events  EventPublisher // optional
	Drafts  DraftClearer   // optional, emptied on Reset
	Service string         // event producer name
	NewKey  func() string  // idempotency key source, uuid by default

	paying     atomic.Bool
	previewing atomic.Int32

	mu        sync.Mutex
	previewFP uint64
}

// State derives the logical step of the current session.
func (o *Orchestrator) State() State {
	return Derive(o.Store.Snapshot(), o.paying.Load() || o.previewing.Load() > 0)
}

func (o *Orchestrator) Snapshot() Session { return o.Store.Snapshot() }

// Catalog fetches the product list. A recovered productId without a
// snapshot is resolved against it; ids no longer listed or out of stock
// stay unresolved.
func (o *Orchestrator) Catalog(ctx context.Context) ([]Product, error) {
	products, err := o.Gateway.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	s := o.Store.Snapshot()
	if s.ProductID != "" && s.SelectedProduct == nil {
		if p, ok := findProduct(products, s.ProductID); ok && p.StockAvailable > 0 {
			o.Store.Hydrate(Partial{SelectedProduct: &p})
		}
	}
	return products, nil
}

// SelectProduct picks productID from a fresh catalog. Any open transaction
// is cleared first so the new selection gets its own attempt.
func (o *Orchestrator) SelectProduct(ctx context.Context, productID string, quantity int) (Product, error) {
	if o.paying.Load() {
		return Product{}, ErrPaymentInFlight
	}
	products, err := o.Gateway.ListProducts(ctx)
	if err != nil {
		return Product{}, err
	}
	p, ok := findProduct(products, productID)
	if !ok {
		return Product{}, ErrProductNotFound
	}
	if p.StockAvailable < 1 {
		return Product{}, ErrOutOfStock
	}
	// a Pay may have started during the catalog fetch
	if !o.claim() {
		return Product{}, ErrPaymentInFlight
	}
	defer o.release()
	o.clearTransaction()
	o.Store.SelectProduct(p, quantity)
	return p, nil
}

func (o *Orchestrator) SubmitDraft(c Customer, d Delivery, pd PaymentDraft) error {
	if !o.claim() {
		return ErrPaymentInFlight
	}
	defer o.release()
	s := o.Store.Snapshot()
	if s.ProductID == "" {
		return ErrProductRequired
	}
	if s.Reference != "" {
		return ErrTransactionOpen
	}
	o.Store.SetDraft(c, d, pd)
	return nil
}

// Preview returns the price breakdown for the current draft, fetching it
// again only when one of its inputs changed since the last fetch.
func (o *Orchestrator) Preview(ctx context.Context) (Preview, error) {
	s := o.Store.Snapshot()
	if err := requireDraft(s); err != nil {
		return Preview{}, err
	}
	fp := fingerprint(s)
	o.mu.Lock()
	fresh := s.Preview != nil && o.previewFP == fp
	o.mu.Unlock()
	if fresh {
		return *s.Preview, nil
	}

	o.previewing.Add(1)
	defer o.previewing.Add(-1)

	pv, err := o.Gateway.PreviewCheckout(ctx, PreviewRequest{ProductID: s.ProductID, Quantity: s.Quantity})
	if err != nil {
		return Preview{}, err
	}
	o.Store.SetPreview(pv)
	o.mu.Lock()
	o.previewFP = fp
	o.mu.Unlock()
	return pv, nil
}

// Pay runs create → pay → status. The idempotency key is stored before the
// create call so an interrupted attempt is resumed with the same key. Any
// failure clears the transaction session and is returned as *PayError.
func (o *Orchestrator) Pay(ctx context.Context) (Transaction, error) {
	if !o.paying.CompareAndSwap(false, true) {
		return Transaction{}, ErrPaymentInFlight
	}
	defer o.paying.Store(false)

	s := o.Store.Snapshot()
	if err := requireDraft(s); err != nil {
		return Transaction{}, err
	}
	if s.Status.IsSettled() {
		return Transaction{}, ErrTransactionSettled
	}

	key := s.IdempotencyKey
	if key == "" {
		key = o.newKey()
		o.Store.SetIdempotencyKey(key)
	}

	created, err := o.Gateway.CreateTransaction(ctx, CreateTransactionRequest{
		ProductID:      s.ProductID,
		Quantity:       s.Quantity,
		IdempotencyKey: key,
		Customer:       *s.Customer,
		Delivery:       *s.Delivery,
	})
	if err != nil {
		return Transaction{}, o.abort(StageCreate, "", key, err)
	}
	o.Store.SetReference(created.Reference)
	o.publish(EventTransactionCreated, created.Reference, TransactionCreatedPayload{
		Reference:      created.Reference,
		IdempotencyKey: key,
		ProductID:      s.ProductID,
		Quantity:       s.Quantity,
	})

	paid, err := o.Gateway.PayTransaction(ctx, created.Reference, *s.PaymentDraft)
	if err != nil {
		return Transaction{}, o.abort(StagePay, created.Reference, key, err)
	}
	o.Store.SetPaymentStatus(paid.Status)
	o.publish(EventPaymentSubmitted, created.Reference, StatusPayload{
		Reference: created.Reference, Status: paid.Status, ProcessorStatus: paid.ProcessorStatus,
	})

	tx, err := o.Gateway.GetTransaction(ctx, created.Reference)
	if err != nil {
		return Transaction{}, o.abort(StageStatus, created.Reference, key, err)
	}
	o.Store.SetPaymentStatus(tx.Status)
	o.publish(EventStatusRefreshed, created.Reference, StatusPayload{
		Reference: created.Reference, Status: tx.Status, ProcessorStatus: tx.ProcessorStatus,
	})
	return tx, nil
}

// RefreshStatus re-reads the transaction of a resumed session so the local
// status mirrors the gateway.
func (o *Orchestrator) RefreshStatus(ctx context.Context) (Transaction, error) {
	if o.paying.Load() {
		return Transaction{}, ErrPaymentInFlight
	}
	s := o.Store.Snapshot()
	if s.Reference == "" {
		return Transaction{}, ErrReferenceRequired
	}
	tx, err := o.Gateway.GetTransaction(ctx, s.Reference)
	if err != nil {
		return Transaction{}, err
	}
	o.Store.SetPaymentStatus(tx.Status)
	o.publish(EventStatusRefreshed, s.Reference, StatusPayload{
		Reference: s.Reference, Status: tx.Status, ProcessorStatus: tx.ProcessorStatus,
	})
	return tx, nil
}

func (o *Orchestrator) ClearTransaction() error {
	if !o.claim() {
		return ErrPaymentInFlight
	}
	defer o.release()
	o.clearTransaction()
	return nil
}

// Reset returns the session to its defaults and empties the stored draft
// when Drafts is set.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if !o.claim() {
		return ErrPaymentInFlight
	}
	defer o.release()
	o.Store.Reset()
	o.mu.Lock()
	o.previewFP = 0
	o.mu.Unlock()
	if o.Drafts != nil {
		if err := o.Drafts.ClearDraft(ctx); err != nil {
			log.Printf("checkout draft clear: %v", err)
		}
	}
	return nil
}

// claim takes the payment flag for a session mutation so no Pay can run
// until release.
func (o *Orchestrator) claim() bool { return o.paying.CompareAndSwap(false, true) }

func (o *Orchestrator) release() { o.paying.Store(false) }

func (o *Orchestrator) clearTransaction() {
	s := o.Store.Snapshot()
	o.Store.ClearTransactionSession()
	if s.Reference != "" || s.IdempotencyKey != "" {
		o.publish(EventTransactionCleared, s.Reference, TransactionClearedPayload{Reference: s.Reference})
	}
}

func (o *Orchestrator) abort(stage Stage, reference, key string, err error) error {
	o.Store.ClearTransactionSession()
	o.publish(EventCheckoutFailed, reference, CheckoutFailedPayload{
		Reference:      reference,
		IdempotencyKey: key,
		Stage:          stage,
		Reason:         err.Error(),
	})
	return &PayError{Stage: stage, Err: err}
}

func (o *Orchestrator) publish(eventType, correlationID string, payload any) {
	if o.Events == nil {
		return
	}
	o.Events.PublishEvent(newEnvelope(o.Service, eventType, correlationID, payload))
}

func (o *Orchestrator) newKey() string {
	if o.NewKey != nil {
		return o.NewKey()
	}
	return uuid.NewString()
}

func requireDraft(s Session) error {
	if s.ProductID == "" {
		return ErrProductRequired
	}
	if s.Customer == nil || s.Delivery == nil || s.PaymentDraft == nil {
		return ErrDraftRequired
	}
	return nil
}

func findProduct(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// fingerprint hashes the inputs a preview depends on.
func fingerprint(s Session) uint64 {
	b, _ := json.Marshal(struct {
		ProductID    string
		Quantity     int
		Customer     *Customer
		Delivery     *Delivery
		PaymentDraft *PaymentDraft
	}{s.ProductID, s.Quantity, s.Customer, s.Delivery, s.PaymentDraft})
	return xxhash.Sum64(b)
}
