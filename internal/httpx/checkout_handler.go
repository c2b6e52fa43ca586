package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-checkout-session/internal/checkout"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	Orch *checkout.Orchestrator

	// PayTimeout bounds a whole create → pay → status run. The run is
	// detached from the request so a dropped client does not abort it.
	PayTimeout time.Duration

	validate *validator.Validate
}

func NewCheckoutHandler(o *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{Orch: o, PayTimeout: 30 * time.Second, validate: newValidator()}
}

func (h *CheckoutHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.reset)
		r.Post("/product", h.selectProduct)
		r.Put("/draft", h.submitDraft)
		r.Get("/summary", h.summary)
		r.Post("/pay", h.pay)
		r.Get("/status", h.status)
		r.Delete("/transaction", h.clearTransaction)
	})
}

type paymentView struct {
	CardNumber   string             `json:"card_number"` // masked
	Brand        checkout.CardBrand `json:"brand"`
	ExpMonth     string             `json:"exp_month"`
	ExpYear      string             `json:"exp_year"`
	CardHolder   string             `json:"card_holder"`
	Installments int                `json:"installments"`
}

// SessionView is what the UI sees of the session. The card is reduced to
// its last four digits and brand.
type SessionView struct {
	State          checkout.State     `json:"state"`
	AllowedActions []checkout.Action  `json:"allowed_actions"`
	ProductID      string             `json:"product_id,omitempty"`
	Product        *checkout.Product  `json:"product,omitempty"`
	Quantity       int                `json:"quantity"`
	Customer       *checkout.Customer `json:"customer,omitempty"`
	Delivery       *checkout.Delivery `json:"delivery,omitempty"`
	Payment        *paymentView       `json:"payment,omitempty"`
	Preview        *checkout.Preview  `json:"preview,omitempty"`
	Reference      string             `json:"reference,omitempty"`
	Status         checkout.Status    `json:"status,omitempty"`
	StatusView     *checkout.View     `json:"status_view,omitempty"`
}

func (h *CheckoutHandler) view() SessionView {
	s := h.Orch.Snapshot()
	st := h.Orch.State()
	v := SessionView{
		State:          st,
		AllowedActions: st.Actions(),
		ProductID:      s.ProductID,
		Product:        s.SelectedProduct,
		Quantity:       s.Quantity,
		Customer:       s.Customer,
		Delivery:       s.Delivery,
		Preview:        s.Preview,
		Reference:      s.Reference,
		Status:         s.Status,
	}
	if s.PaymentDraft != nil {
		pd := s.PaymentDraft
		v.Payment = &paymentView{
			CardNumber:   checkout.MaskCard(pd.CardNumber),
			Brand:        checkout.DetectCardBrand(pd.CardNumber),
			ExpMonth:     pd.ExpMonth,
			ExpYear:      pd.ExpYear,
			CardHolder:   pd.CardHolder,
			Installments: pd.Installments,
		}
	}
	if s.Reference != "" {
		sv := checkout.StatusView(s.Status)
		v.StatusView = &sv
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps checkout and gateway errors to HTTP responses. The body
// always carries a user-facing message, never raw gateway text for 5xx.
func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": checkout.UserMessage(err)}
	var payErr *checkout.PayError
	if errors.As(err, &payErr) {
		body["stage"] = payErr.Stage
	}
	if next := checkout.NextStep(err); next != "" {
		body["next_step"] = next
		writeJSON(w, http.StatusConflict, body)
		return
	}

	code := http.StatusBadGateway
	var apiErr *checkout.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Status
		if code >= 500 {
			code = http.StatusBadGateway
		}
	case errors.Is(err, checkout.ErrProductNotFound):
		code = http.StatusNotFound
	case errors.Is(err, checkout.ErrOutOfStock),
		errors.Is(err, checkout.ErrPaymentInFlight),
		errors.Is(err, checkout.ErrTransactionSettled),
		errors.Is(err, checkout.ErrTransactionOpen),
		errors.Is(err, checkout.ErrReferenceRequired):
		code = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	writeJSON(w, code, body)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *CheckoutHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Orch.Catalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CheckoutHandler) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandler) selectProduct(w http.ResponseWriter, r *http.Request) {
	var req SelectProductReq
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": fieldErrors(err)})
		return
	}
	if _, err := h.Orch.SelectProduct(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandler) submitDraft(w http.ResponseWriter, r *http.Request) {
	var req DraftReq
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.normalize()
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid input", "fields": fieldErrors(err)})
		return
	}
	c, d, pd := req.toDomain()
	if err := h.Orch.SubmitDraft(c, d, pd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandler) summary(w http.ResponseWriter, r *http.Request) {
	pv, err := h.Orch.Preview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

type payResp struct {
	Transaction checkout.Transaction `json:"transaction"`
	Session     SessionView          `json:"session"`
}

func (h *CheckoutHandler) pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.PayTimeout)
	defer cancel()

	tx, err := h.Orch.Pay(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payResp{Transaction: tx, Session: h.view()})
}

func (h *CheckoutHandler) status(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Orch.RefreshStatus(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payResp{Transaction: tx, Session: h.view()})
}

func (h *CheckoutHandler) clearTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.Orch.ClearTransaction(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}

func (h *CheckoutHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Orch.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view())
}
