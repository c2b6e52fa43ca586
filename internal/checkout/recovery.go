package checkout

// Recover seeds st from a persisted draft. It never talks to the gateway:
// the product snapshot is re-resolved later from a fresh catalog.
func Recover(st *Store, d *Draft) {
	if d == nil {
		return
	}

	p := Partial{
		Customer: d.Customer,
		Delivery: d.Delivery,
	}
	if d.ProductID != "" {
		id := d.ProductID
		p.ProductID = &id
	}
	if d.Quantity != nil {
		q := *d.Quantity
		if q < 1 {
			q = 1
		}
		p.Quantity = &q
	}
	st.Hydrate(p)

	if d.Reference != "" {
		st.SetReference(d.Reference)
	}
	if d.IdempotencyKey != "" {
		st.SetIdempotencyKey(d.IdempotencyKey)
	}
}
