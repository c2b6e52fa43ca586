package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrProductRequired    = errors.New("select a product first")
	ErrDraftRequired      = errors.New("customer, delivery and payment details are required")
	ErrPaymentInFlight    = errors.New("a payment is already being processed")
	ErrReferenceRequired  = errors.New("no transaction to check")
	ErrTransactionSettled = errors.New("transaction already settled, clear it to start a new one")
	ErrTransactionOpen    = errors.New("a transaction is open, clear it before changing checkout details")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrProductNotFound    = errors.New("product not found")
)

// APIError is a non-success response from the transaction gateway.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %d %s", e.Status, e.Message)
}

// Stage names the step of the Pay pipeline that failed.
type Stage string

const (
	StageCreate Stage = "create"
	StagePay    Stage = "pay"
	StageStatus Stage = "status"
)

// PayError wraps the first failure of the create → pay → status chain.
type PayError struct {
	Stage Stage
	Err   error
}

func (e *PayError) Error() string {
	return fmt.Sprintf("pay %s: %v", e.Stage, e.Err)
}

func (e *PayError) Unwrap() error { return e.Err }

// NextStep returns the state a caller must go back to when err is a
// precondition failure, or "" otherwise.
func NextStep(err error) State {
	switch {
	case errors.Is(err, ErrProductRequired):
		return StateProductSelection
	case errors.Is(err, ErrDraftRequired):
		return StateDraftCapture
	}
	return ""
}
