package checkout

import (
	"errors"
	"net/http"
)

const (
	MsgBadRequest      = "Invalid request. Check your data and try again."
	MsgNotFound        = "Requested resource not found or no stock available."
	MsgTooManyRequests = "Too many requests. Wait a moment and try again."
	MsgServerError     = "Internal server error, try again later."
	MsgUnexpected      = "Unexpected error. Try again."
)

// UserMessage turns any checkout error into text fit for the shopper.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusBadRequest:
			return MsgBadRequest
		case apiErr.Status == http.StatusNotFound:
			return MsgNotFound
		case apiErr.Status == http.StatusTooManyRequests:
			return MsgTooManyRequests
		case apiErr.Status >= 500:
			return MsgServerError
		case apiErr.Message != "":
			return apiErr.Message
		}
		return MsgUnexpected
	}
	for _, known := range []error{
		ErrProductRequired, ErrDraftRequired, ErrPaymentInFlight, ErrReferenceRequired,
		ErrTransactionSettled, ErrTransactionOpen, ErrOutOfStock, ErrProductNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return MsgUnexpected
}
