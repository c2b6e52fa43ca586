package checkout

import (
	"context"
	"sync"
)

// fakeGateway implements Gateway for testing
type fakeGateway struct {
	mu sync.Mutex

	Products   []Product
	ListErr    error
	PreviewRes Preview
	PreviewErr error
	CreateRes  CreateTransactionResponse
	CreateErr  error
	PayRes     PayTransactionResponse
	PayErr     error
	StatusRes  Transaction
	StatusErr  error

	// ListHook, CreateHook and PayHook run inside the matching call before it returns
	ListHook   func()
	CreateHook func()
	PayHook    func()

	ListCalls    int
	PreviewCalls int
	CreateReqs   []CreateTransactionRequest
	PayRefs      []string
	StatusRefs   []string
}

func (f *fakeGateway) ListProducts(_ context.Context) ([]Product, error) {
	f.mu.Lock()
	f.ListCalls++
	hook := f.ListHook
	res, err := f.Products, f.ListErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res, err
}

func (f *fakeGateway) PreviewCheckout(_ context.Context, _ PreviewRequest) (Preview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PreviewCalls++
	return f.PreviewRes, f.PreviewErr
}

func (f *fakeGateway) CreateTransaction(_ context.Context, req CreateTransactionRequest) (CreateTransactionResponse, error) {
	f.mu.Lock()
	f.CreateReqs = append(f.CreateReqs, req)
	hook := f.CreateHook
	res, err := f.CreateRes, f.CreateErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res, err
}

func (f *fakeGateway) PayTransaction(_ context.Context, reference string, _ PaymentDraft) (PayTransactionResponse, error) {
	f.mu.Lock()
	f.PayRefs = append(f.PayRefs, reference)
	hook := f.PayHook
	res, err := f.PayRes, f.PayErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return res, err
}

func (f *fakeGateway) GetTransaction(_ context.Context, reference string) (Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusRefs = append(f.StatusRefs, reference)
	return f.StatusRes, f.StatusErr
}

// recordingPublisher implements EventPublisher for testing
type recordingPublisher struct {
	mu     sync.Mutex
	Events []Envelope
}

func (r *recordingPublisher) PublishEvent(ev Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
}

func (r *recordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.EventType)
	}
	return out
}

// failingStorage implements DraftStorage and always fails
type failingStorage struct{ err error }

func (f failingStorage) SaveDraft(context.Context, []byte) error   { return f.err }
func (f failingStorage) LoadDraft(context.Context) ([]byte, error) { return nil, f.err }

func testCustomer() Customer {
	return Customer{
		FullName:       "Ana Gomez",
		Email:          "ana@example.com",
		Phone:          "+573001112233",
		DocumentType:   "CC",
		DocumentNumber: "1020304050",
	}
}

func testDelivery() Delivery {
	return Delivery{
		AddressLine1: "Calle 10 # 20-30",
		City:         "Bogota",
		Region:       "Cundinamarca",
		Country:      "CO",
		PostalCode:   "110111",
	}
}

func testPayment() PaymentDraft {
	return PaymentDraft{
		CardNumber:   "4242424242424242",
		CVC:          "123",
		ExpMonth:     "08",
		ExpYear:      "28",
		CardHolder:   "ANA GOMEZ",
		Installments: 1,
		Email:        "ana@example.com",
	}
}
