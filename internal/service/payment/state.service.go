package payment

import (
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
)

// State is one pipeline state. Each implementation carries exactly the data
// that exists in that state.
type State interface {
	Kind() enum.PaymentStateEnum
	state()
}

type Idle struct{}

type ReceiptCreated struct {
	Order   types.OrderRecord
	Receipt types.ReceiptHandle
}

type CardTokenized struct {
	Order      types.OrderRecord
	Receipt    types.ReceiptHandle
	MaskedCard string
	card       types.CardToken
}

type CodeRequested struct {
	Order       types.OrderRecord
	Receipt     types.ReceiptHandle
	MaskedCard  string
	Phone       string
	ResendAfter time.Time
	card        types.CardToken
}

// CardVerified is true once the code was accepted and only the payment call
// remains.
func (s CodeRequested) CardVerified() bool {
	return s.card.Verified
}

type VerifiedAndPaid struct {
	Order      types.OrderRecord
	Receipt    types.ReceiptHandle
	MaskedCard string
	PaidAt     time.Time
}

type Failed struct {
	Step    enum.PaymentStepEnum
	Reason  string
	Order   *types.OrderRecord
	Receipt *types.ReceiptHandle
}

func (Idle) Kind() enum.PaymentStateEnum            { return enum.IDLE }
func (ReceiptCreated) Kind() enum.PaymentStateEnum  { return enum.RECEIPT_CREATED }
func (CardTokenized) Kind() enum.PaymentStateEnum   { return enum.CARD_TOKENIZED }
func (CodeRequested) Kind() enum.PaymentStateEnum   { return enum.CODE_REQUESTED }
func (VerifiedAndPaid) Kind() enum.PaymentStateEnum { return enum.VERIFIED_AND_PAID }
func (Failed) Kind() enum.PaymentStateEnum          { return enum.FAILED }

func (Idle) state()            {}
func (ReceiptCreated) state()  {}
func (CardTokenized) state()   {}
func (CodeRequested) state()   {}
func (VerifiedAndPaid) state() {}
func (Failed) state()          {}

// View is the state as shown to the UI. It never contains the card token.
type View struct {
	State        enum.PaymentStateEnum `json:"state"`
	OrderID      int64                 `json:"order_id,omitempty"`
	OrderNumber  string                `json:"order_number,omitempty"`
	ReceiptID    string                `json:"receipt_id,omitempty"`
	Amount       int64                 `json:"amount,omitempty"`
	MaskedCard   string                `json:"masked_card,omitempty"`
	Phone        string                `json:"phone,omitempty"`
	ResendAfter  *time.Time            `json:"resend_after,omitempty"`
	CardVerified bool                  `json:"card_verified,omitempty"`
	FailedStep   enum.PaymentStepEnum  `json:"failed_step,omitempty"`
	Reason       string                `json:"reason,omitempty"`
}

func Describe(s State) View {
	v := View{State: s.Kind()}

	switch st := s.(type) {
	case ReceiptCreated:
		v.fill(&st.Order, &st.Receipt)
	case CardTokenized:
		v.fill(&st.Order, &st.Receipt)
		v.MaskedCard = st.MaskedCard
	case CodeRequested:
		v.fill(&st.Order, &st.Receipt)
		v.MaskedCard = st.MaskedCard
		v.Phone = st.Phone
		resendAfter := st.ResendAfter
		v.ResendAfter = &resendAfter
		v.CardVerified = st.card.Verified
	case VerifiedAndPaid:
		v.fill(&st.Order, &st.Receipt)
		v.MaskedCard = st.MaskedCard
	case Failed:
		v.fill(st.Order, st.Receipt)
		v.FailedStep = st.Step
		v.Reason = st.Reason
	}
	return v
}

func (v *View) fill(order *types.OrderRecord, receipt *types.ReceiptHandle) {
	if order != nil {
		v.OrderID = order.ID
		v.OrderNumber = order.OrderNumber
	}
	if receipt != nil {
		v.ReceiptID = receipt.ReceiptID
		v.Amount = receipt.Amount
	}
}
