package httpx

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/go-playground/validator/v10"
)

// Field patterns for the captured checkout input.
var patterns = map[string]*regexp.Regexp{
	"phone":      regexp.MustCompile(`^\+?\d{7,15}$`),
	"doctype":    regexp.MustCompile(`^[A-Z]{1,4}$`),
	"docnumber":  regexp.MustCompile(`^[A-Za-z0-9-]{5,20}$`),
	"country":    regexp.MustCompile(`^[A-Z]{2}$`),
	"postalcode": regexp.MustCompile(`^[A-Z0-9 -]{3,10}$`),
	"cardnumber": regexp.MustCompile(`^\d{13,19}$`),
	"cvc":        regexp.MustCompile(`^\d{3,4}$`),
	"expmonth":   regexp.MustCompile(`^(0[1-9]|1[0-2])$`),
	"expyear":    regexp.MustCompile(`^\d{2,4}$`),
}

var fieldMessages = map[string]string{
	"phone":      "Invalid phone. Use 7 to 15 digits.",
	"doctype":    "Invalid document type.",
	"docnumber":  "Invalid document number.",
	"country":    "Use a 2-letter country code (e.g. CO).",
	"postalcode": "Invalid postal code.",
	"cardnumber": "Invalid card number.",
	"cvc":        "Invalid CVC.",
	"expmonth":   "Invalid month. Use MM.",
	"expyear":    "Invalid year.",
	"email":      "Enter a valid email.",
	"required":   "This field is required.",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	for tag, re := range patterns {
		re := re
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	return v
}

type customerInput struct {
	FullName       string `json:"fullName" validate:"min=3,max=80"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"phone"`
	DocumentType   string `json:"documentType" validate:"doctype"`
	DocumentNumber string `json:"documentNumber" validate:"docnumber"`
}

type deliveryInput struct {
	AddressLine1 string `json:"addressLine1" validate:"min=6,max=120"`
	AddressLine2 string `json:"addressLine2" validate:"max=120"`
	City         string `json:"city" validate:"min=2,max=80"`
	Region       string `json:"region" validate:"min=2,max=80"`
	Country      string `json:"country" validate:"country"`
	PostalCode   string `json:"postalCode" validate:"postalcode"`
	Instructions string `json:"instructions" validate:"max=120"`
}

type paymentInput struct {
	CardNumber   string `json:"cardNumber" validate:"cardnumber"`
	CVC          string `json:"cvc" validate:"cvc"`
	ExpMonth     string `json:"expMonth" validate:"expmonth"`
	ExpYear      string `json:"expYear" validate:"expyear"`
	CardHolder   string `json:"cardHolder" validate:"min=3,max=80"`
	Installments int    `json:"installments" validate:"min=1,max=36"`
	Email        string `json:"email" validate:"omitempty,email"`
}

// DraftReq is the body of PUT /checkout/draft.
type DraftReq struct {
	Customer customerInput `json:"customer"`
	Delivery deliveryInput `json:"delivery"`
	Payment  paymentInput  `json:"payment"`
}

// normalize trims the free-text fields the way the form does before checking
// length rules.
func (r *DraftReq) normalize() {
	r.Customer.FullName = strings.TrimSpace(r.Customer.FullName)
	r.Delivery.AddressLine1 = strings.TrimSpace(r.Delivery.AddressLine1)
	r.Delivery.AddressLine2 = strings.TrimSpace(r.Delivery.AddressLine2)
	r.Delivery.City = strings.TrimSpace(r.Delivery.City)
	r.Delivery.Region = strings.TrimSpace(r.Delivery.Region)
	r.Delivery.Instructions = strings.TrimSpace(r.Delivery.Instructions)
	r.Payment.CardHolder = strings.TrimSpace(r.Payment.CardHolder)
	r.Payment.CardNumber = strings.ReplaceAll(r.Payment.CardNumber, " ", "")
	if r.Payment.Email == "" {
		r.Payment.Email = r.Customer.Email
	}
}

func (r DraftReq) toDomain() (checkout.Customer, checkout.Delivery, checkout.PaymentDraft) {
	return checkout.Customer(r.Customer), checkout.Delivery(r.Delivery), checkout.PaymentDraft(r.Payment)
}

// SelectProductReq is the body of POST /checkout/product.
type SelectProductReq struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// fieldErrors flattens validator output into {"customer.email": "..."}.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return out
}

func fieldPath(ns string) string {
	// drop the root struct name
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s.", fe.Param())
	}
	return "Invalid value."
}
