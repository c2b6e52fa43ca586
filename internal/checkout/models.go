package checkout

type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PriceCents     int    `json:"priceCents"`
	Currency       string `json:"currency"`
	StockAvailable int    `json:"stockAvailable"`
	ImageURL       string `json:"imageUrl,omitempty"`
}

type Customer struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DocumentType   string `json:"documentType"`
	DocumentNumber string `json:"documentNumber"`
}

type Delivery struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	PostalCode   string `json:"postalCode"`
	Instructions string `json:"instructions,omitempty"`
}

// PaymentDraft is the captured card instrument. It lives only in memory.
type PaymentDraft struct {
	CardNumber   string `json:"cardNumber"`
	CVC          string `json:"cvc"`
	ExpMonth     string `json:"expMonth"`
	ExpYear      string `json:"expYear"`
	CardHolder   string `json:"cardHolder"`
	Installments int    `json:"installments"`
	Email        string `json:"email"`
}

type Preview struct {
	Currency           string `json:"currency"`
	ProductAmountCents int    `json:"productAmountCents"`
	BaseFeeCents       int    `json:"baseFeeCents"`
	DeliveryFeeCents   int    `json:"deliveryFeeCents"`
	TotalAmountCents   int    `json:"totalAmountCents"`
}

// Session is the checkout draft owned by a Store. Optional fields are nil
// (or empty strings for ids) when unset.
type Session struct {
	SelectedProduct *Product
	ProductID       string
	Quantity        int
	Customer        *Customer
	Delivery        *Delivery
	PaymentDraft    *PaymentDraft
	Preview         *Preview
	Reference       string
	IdempotencyKey  string
	Status          Status
}

// Partial carries recovered fields for Store.Hydrate. Nil fields are left untouched.
type Partial struct {
	SelectedProduct *Product
	ProductID       *string
	Quantity        *int
	Customer        *Customer
	Delivery        *Delivery
}

func defaultSession() Session {
	return Session{Quantity: 1}
}

// clone returns a copy that shares no pointers with s.
func (s Session) clone() Session {
	out := s
	if s.SelectedProduct != nil {
		p := *s.SelectedProduct
		out.SelectedProduct = &p
	}
	if s.Customer != nil {
		c := *s.Customer
		out.Customer = &c
	}
	if s.Delivery != nil {
		d := *s.Delivery
		out.Delivery = &d
	}
	if s.PaymentDraft != nil {
		pd := *s.PaymentDraft
		out.PaymentDraft = &pd
	}
	if s.Preview != nil {
		pv := *s.Preview
		out.Preview = &pv
	}
	return out
}

// Transaction is the gateway's authoritative view of a created transaction.
type Transaction struct {
	Reference        string `json:"reference"`
	Status           Status `json:"status"`
	ProcessorStatus  string `json:"processorStatus,omitempty"`
	TotalAmountCents int    `json:"totalAmountCents"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}
