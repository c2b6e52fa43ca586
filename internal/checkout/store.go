package checkout

import "sync"

// Listener observes every Store transition with the resulting session.
// Listeners run synchronously and must not call back into the Store.
type Listener func(Session)

// Store owns the single checkout session. Every transition is applied
// atomically and then announced to the subscribed listeners.
type Store struct {
	mu        sync.Mutex
	s         Session
	listeners []Listener
}

func NewStore() *Store {
	return &Store{s: defaultSession()}
}

func (st *Store) Subscribe(l Listener) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, l)
}

// Snapshot returns a copy of the current session.
func (st *Store) Snapshot() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s.clone()
}

func (st *Store) update(fn func(s *Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.s)
	snap := st.s.clone()
	for _, l := range st.listeners {
		l(snap)
	}
}

// Hydrate merges recovered fields; fields that are nil in p stay as they are.
func (st *Store) Hydrate(p Partial) {
	st.update(func(s *Session) {
		if p.SelectedProduct != nil {
			prod := *p.SelectedProduct
			s.SelectedProduct = &prod
		}
		if p.ProductID != nil {
			s.ProductID = *p.ProductID
		}
		if p.Quantity != nil {
			s.Quantity = *p.Quantity
		}
		if p.Customer != nil {
			c := *p.Customer
			s.Customer = &c
		}
		if p.Delivery != nil {
			d := *p.Delivery
			s.Delivery = &d
		}
		s.Quantity = clampQuantity(s.Quantity, s.SelectedProduct)
	})
}

func (st *Store) SelectProduct(p Product, quantity int) {
	st.update(func(s *Session) {
		s.SelectedProduct = &p
		s.ProductID = p.ID
		s.Quantity = clampQuantity(quantity, &p)
	})
}

func (st *Store) SetDraft(c Customer, d Delivery, pd PaymentDraft) {
	st.update(func(s *Session) {
		s.Customer = &c
		s.Delivery = &d
		s.PaymentDraft = &pd
	})
}

func (st *Store) SetPreview(p Preview) {
	st.update(func(s *Session) { s.Preview = &p })
}

func (st *Store) SetReference(ref string) {
	st.update(func(s *Session) { s.Reference = ref })
}

func (st *Store) SetIdempotencyKey(key string) {
	st.update(func(s *Session) { s.IdempotencyKey = key })
}

func (st *Store) SetPaymentStatus(status Status) {
	st.update(func(s *Session) { s.Status = status })
}

// ClearTransactionSession drops reference, idempotency key and status so the
// next Pay starts a new transaction.
func (st *Store) ClearTransactionSession() {
	st.update(func(s *Session) {
		s.Reference = ""
		s.IdempotencyKey = ""
		s.Status = ""
	})
}

func (st *Store) Reset() {
	st.update(func(s *Session) { *s = defaultSession() })
}

// clampQuantity keeps q within [1, stock] when a product snapshot is known.
func clampQuantity(q int, p *Product) int {
	if q < 1 {
		q = 1
	}
	if p != nil && p.StockAvailable > 0 && q > p.StockAvailable {
		q = p.StockAvailable
	}
	return q
}
