package checkout

import "context"

// Gateway is the remote transaction backend the checkout cooperates with.
// Failures with a response are reported as *APIError.
type Gateway interface {
	ListProducts(ctx context.Context) ([]Product, error)
	PreviewCheckout(ctx context.Context, req PreviewRequest) (Preview, error)
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (CreateTransactionResponse, error)
	PayTransaction(ctx context.Context, reference string, payment PaymentDraft) (PayTransactionResponse, error)
	GetTransaction(ctx context.Context, reference string) (Transaction, error)
}

type PreviewRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	ProductID      string   `json:"productId"`
	Quantity       int      `json:"quantity"`
	IdempotencyKey string   `json:"idempotencyKey"`
	Customer       Customer `json:"customer"`
	Delivery       Delivery `json:"delivery"`
}

type CreateTransactionResponse struct {
	Reference string `json:"reference"`
	Status    Status `json:"status"`
}

type PayTransactionResponse struct {
	Reference       string `json:"reference"`
	Status          Status `json:"status"`
	ProcessorStatus string `json:"processorStatus,omitempty"`
}
