package checkout

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDeclined Status = "DECLINED"
	StatusError    Status = "ERROR"
)

// IsSettled reports whether s is a terminal gateway status.
func (s Status) IsSettled() bool {
	switch s {
	case StatusApproved, StatusDeclined, StatusError:
		return true
	}
	return false
}

type View struct {
	Label string `json:"label"`
	Tone  string `json:"tone"` // success | error | warning
}

func StatusView(s Status) View {
	switch s {
	case StatusApproved:
		return View{Label: "Approved", Tone: "success"}
	case StatusDeclined:
		return View{Label: "Declined", Tone: "error"}
	case StatusError:
		return View{Label: "Failed", Tone: "error"}
	default:
		return View{Label: "Pending", Tone: "warning"}
	}
}

// State is the logical checkout step derived from the session fields.
type State string

const (
	StateProductSelection    State = "PRODUCT_SELECTION"
	StateDraftCapture        State = "DRAFT_CAPTURE"
	StatePreviewReady        State = "PREVIEW_READY"
	StateTransactionInFlight State = "TRANSACTION_IN_FLIGHT"
	StateAwaitingStatus      State = "AWAITING_STATUS"
	StateSettled             State = "SETTLED"
)

type Action string

const (
	ActionSelectProduct    Action = "select_product"
	ActionSubmitDraft      Action = "submit_draft"
	ActionPreview          Action = "preview"
	ActionPay              Action = "pay"
	ActionPollStatus       Action = "poll_status"
	ActionClearTransaction Action = "clear_transaction"
	ActionReset            Action = "reset"
)

var allowed = map[State]map[Action]bool{
	StateProductSelection: {ActionSelectProduct: true, ActionReset: true},
	StateDraftCapture:     {ActionSelectProduct: true, ActionSubmitDraft: true, ActionReset: true},
	StatePreviewReady: {
		ActionSelectProduct: true, ActionSubmitDraft: true, ActionPreview: true,
		ActionPay: true, ActionReset: true,
	},
	StateTransactionInFlight: {},
	StateAwaitingStatus: {
		ActionPollStatus: true, ActionPay: true, ActionClearTransaction: true,
		ActionSelectProduct: true, ActionReset: true,
	},
	StateSettled: {
		ActionPollStatus: true, ActionClearTransaction: true,
		ActionSelectProduct: true, ActionReset: true,
	},
}

func (st State) Allows(a Action) bool {
	return allowed[st][a]
}

// Actions lists the actions allowed in st in a stable order.
func (st State) Actions() []Action {
	order := []Action{
		ActionSelectProduct, ActionSubmitDraft, ActionPreview, ActionPay,
		ActionPollStatus, ActionClearTransaction, ActionReset,
	}
	out := make([]Action, 0, len(order))
	for _, a := range order {
		if st.Allows(a) {
			out = append(out, a)
		}
	}
	return out
}

// Derive maps the field combination of s to its logical state. inFlight is
// true while a preview or pay call is outstanding.
func Derive(s Session, inFlight bool) State {
	switch {
	case inFlight:
		return StateTransactionInFlight
	case s.Status.IsSettled():
		return StateSettled
	case s.Reference != "":
		return StateAwaitingStatus
	case s.ProductID == "":
		return StateProductSelection
	case s.Customer == nil || s.Delivery == nil || s.PaymentDraft == nil:
		return StateDraftCapture
	default:
		return StatePreviewReady
	}
}
