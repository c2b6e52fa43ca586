package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore().Snapshot()

	assert.Equal(t, 1, s.Quantity)
	assert.Nil(t, s.SelectedProduct)
	assert.Empty(t, s.ProductID)
	assert.Nil(t, s.Customer)
	assert.Nil(t, s.Delivery)
	assert.Nil(t, s.PaymentDraft)
	assert.Nil(t, s.Preview)
	assert.Empty(t, s.Reference)
	assert.Empty(t, s.IdempotencyKey)
	assert.Empty(t, s.Status)
}

func TestSelectProduct_ClampsQuantityToStock(t *testing.T) {
	st := NewStore()

	st.SelectProduct(Product{ID: "p1", StockAvailable: 3}, 10)

	s := st.Snapshot()
	assert.Equal(t, "p1", s.ProductID)
	assert.Equal(t, 3, s.Quantity)
	require.NotNil(t, s.SelectedProduct)
	assert.Equal(t, "p1", s.SelectedProduct.ID)
}

func TestSelectProduct_QuantityAtLeastOne(t *testing.T) {
	st := NewStore()

	st.SelectProduct(Product{ID: "p1", StockAvailable: 3}, 0)
	assert.Equal(t, 1, st.Snapshot().Quantity)

	st.SelectProduct(Product{ID: "p1", StockAvailable: 3}, -4)
	assert.Equal(t, 1, st.Snapshot().Quantity)
}

func TestSelectProduct_LeavesOtherFieldsAlone(t *testing.T) {
	st := NewStore()
	st.SetDraft(testCustomer(), testDelivery(), testPayment())
	st.SetPreview(Preview{TotalAmountCents: 100})
	st.SetReference("TT-1")

	st.SelectProduct(Product{ID: "p2", StockAvailable: 5}, 2)

	s := st.Snapshot()
	assert.NotNil(t, s.Customer)
	assert.NotNil(t, s.Delivery)
	assert.NotNil(t, s.PaymentDraft)
	assert.NotNil(t, s.Preview)
	assert.Equal(t, "TT-1", s.Reference)
}

func TestSetDraft_SetsAllThree(t *testing.T) {
	st := NewStore()
	st.SelectProduct(Product{ID: "p1", StockAvailable: 5}, 2)

	st.SetDraft(testCustomer(), testDelivery(), testPayment())

	s := st.Snapshot()
	require.NotNil(t, s.Customer)
	require.NotNil(t, s.Delivery)
	require.NotNil(t, s.PaymentDraft)
	assert.Equal(t, "Ana Gomez", s.Customer.FullName)
	assert.Equal(t, "Bogota", s.Delivery.City)
	assert.Equal(t, "4242424242424242", s.PaymentDraft.CardNumber)
	assert.Equal(t, "p1", s.ProductID)
	assert.Equal(t, 2, s.Quantity)
}

func TestClearTransactionSession_OnlyTransactionFields(t *testing.T) {
	st := NewStore()
	st.SelectProduct(Product{ID: "p1", StockAvailable: 5}, 2)
	st.SetDraft(testCustomer(), testDelivery(), testPayment())
	st.SetReference("TT-1")
	st.SetIdempotencyKey("k1")
	st.SetPaymentStatus(StatusDeclined)

	st.ClearTransactionSession()

	s := st.Snapshot()
	assert.Equal(t, "p1", s.ProductID)
	assert.Equal(t, 2, s.Quantity)
	assert.NotNil(t, s.Customer)
	assert.NotNil(t, s.Delivery)
	assert.NotNil(t, s.PaymentDraft)
	assert.Empty(t, s.Reference)
	assert.Empty(t, s.IdempotencyKey)
	assert.Empty(t, s.Status)
}

func TestReset_ReturnsDefaults(t *testing.T) {
	st := NewStore()
	st.SelectProduct(Product{ID: "p1", StockAvailable: 5}, 4)
	st.SetDraft(testCustomer(), testDelivery(), testPayment())
	st.SetReference("TT-1")

	st.Reset()

	assert.Equal(t, defaultSession(), st.Snapshot())
}

func TestHydrate_AbsentFieldsUntouched(t *testing.T) {
	st := NewStore()
	st.SetDraft(testCustomer(), testDelivery(), testPayment())

	id := "p9"
	st.Hydrate(Partial{ProductID: &id})

	s := st.Snapshot()
	assert.Equal(t, "p9", s.ProductID)
	assert.Equal(t, 1, s.Quantity)
	assert.NotNil(t, s.Customer)
	assert.NotNil(t, s.PaymentDraft)
}

func TestHydrate_ProductSnapshotClampsQuantity(t *testing.T) {
	st := NewStore()
	q := 8
	st.Hydrate(Partial{Quantity: &q})

	st.Hydrate(Partial{SelectedProduct: &Product{ID: "p1", StockAvailable: 2}})

	assert.Equal(t, 2, st.Snapshot().Quantity)
}

func TestSnapshot_IsACopy(t *testing.T) {
	st := NewStore()
	st.SetDraft(testCustomer(), testDelivery(), testPayment())

	s := st.Snapshot()
	s.Customer.FullName = "changed"

	assert.Equal(t, "Ana Gomez", st.Snapshot().Customer.FullName)
}

func TestSubscribe_CalledAfterEveryTransition(t *testing.T) {
	st := NewStore()
	var seen []Session
	st.Subscribe(func(s Session) { seen = append(seen, s) })

	st.SelectProduct(Product{ID: "p1", StockAvailable: 5}, 2)
	st.SetDraft(testCustomer(), testDelivery(), testPayment())
	st.SetPreview(Preview{TotalAmountCents: 1})
	st.SetIdempotencyKey("k1")
	st.SetReference("TT-1")
	st.SetPaymentStatus(StatusPending)
	st.ClearTransactionSession()
	st.Hydrate(Partial{})
	st.Reset()

	require.Len(t, seen, 9)
	assert.Equal(t, "k1", seen[3].IdempotencyKey)
	assert.Equal(t, "TT-1", seen[4].Reference)
	assert.Empty(t, seen[6].Reference)
	assert.Equal(t, defaultSession(), seen[8])
}
