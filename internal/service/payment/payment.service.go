package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/common/enum"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/logger"
	"storefront-checkout/internal/pkg/validation"
)

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// begin marks a step as running and returns the state it starts from.
func (p *Pipeline) begin(op string, allowed ...enum.PaymentStateEnum) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return nil, ErrStepInProgress
	}
	for _, kind := range allowed {
		if p.state.Kind() == kind {
			p.busy = true
			return p.state, nil
		}
	}
	return nil, illegal(p.state.Kind(), op)
}

// end finishes a step, moving to next when it is not nil.
func (p *Pipeline) end(next State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if next != nil {
		logger.Debug.Printf("Payment %s -> %s", p.state.Kind().ToString(), next.Kind().ToString())
		p.state = next
	}
	p.busy = false
}

func (p *Pipeline) set(next State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = next
}

// Start creates the receipt for a freshly created order. Without a receipt the
// order cannot be paid online, so a failure here is final.
func (p *Pipeline) Start(ctx context.Context, order types.OrderRecord, amount int64) error {
	if _, err := p.begin("start", enum.IDLE); err != nil {
		return err
	}

	receipt, err := p.gw.CreateReceipt(ctx, p.credential, amount, order.ID)
	if err != nil {
		extErr := external(enum.STEP_CREATE_RECEIPT, err)
		p.end(Failed{Step: enum.STEP_CREATE_RECEIPT, Reason: extErr.Message, Order: &order})
		return extErr
	}

	p.end(ReceiptCreated{Order: order, Receipt: *receipt})
	return nil
}

// SubmitCard tokenizes the card and asks the store to text the one-time code.
// A card can be replaced any time before payment.
func (p *Pipeline) SubmitCard(ctx context.Context, input CardInput) (*types.VerifyCodeInfo, error) {
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	number := helper.DigitsOnly(input.CardNumber)
	expiry, err := validation.NormalizeExpiry(input.Expiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", validation.ErrInvalid, err)
	}

	from, err := p.begin("submit card", enum.RECEIPT_CREATED, enum.CARD_TOKENIZED, enum.CODE_REQUESTED)
	if err != nil {
		return nil, err
	}
	order, receipt := orderOf(from)

	card, err := p.gw.CreateCard(ctx, p.credential, number, expiry)
	if err != nil {
		p.end(nil)
		return nil, external(enum.STEP_CREATE_CARD, err)
	}

	tokenized := CardTokenized{
		Order:      order,
		Receipt:    receipt,
		MaskedCard: helper.MaskCardNumber(number),
		card:       types.CardToken{Token: card.Token},
	}
	p.set(tokenized)
	logger.Info.Printf("Card %s tokenized for order %d", tokenized.MaskedCard, order.ID)

	info, next, err := p.requestCode(ctx, tokenized.Order, tokenized.Receipt, tokenized.MaskedCard, tokenized.card)
	if err != nil {
		p.end(nil)
		return nil, err
	}
	p.end(next)
	return info, nil
}

// ResendCode asks for another one-time code once the server's wait is over.
func (p *Pipeline) ResendCode(ctx context.Context) (*types.VerifyCodeInfo, error) {
	from, err := p.begin("resend code", enum.CARD_TOKENIZED, enum.CODE_REQUESTED)
	if err != nil {
		return nil, err
	}

	var (
		order   types.OrderRecord
		receipt types.ReceiptHandle
		masked  string
		card    types.CardToken
	)
	switch st := from.(type) {
	case CardTokenized:
		order, receipt, masked, card = st.Order, st.Receipt, st.MaskedCard, st.card
	case CodeRequested:
		if st.card.Verified {
			p.end(nil)
			return nil, illegal(st.Kind(), "resend code for a verified card")
		}
		if wait := st.ResendAfter.Sub(p.now()); wait > 0 {
			p.end(nil)
			return nil, fmt.Errorf("%w: try again in %s", ErrResendTooSoon, wait.Round(time.Second))
		}
		order, receipt, masked, card = st.Order, st.Receipt, st.MaskedCard, st.card
	}

	info, next, err := p.requestCode(ctx, order, receipt, masked, card)
	if err != nil {
		p.end(nil)
		return nil, err
	}
	p.end(next)
	return info, nil
}

func (p *Pipeline) requestCode(ctx context.Context, order types.OrderRecord, receipt types.ReceiptHandle, masked string, card types.CardToken) (*types.VerifyCodeInfo, State, error) {
	info, err := p.gw.GetVerifyCode(ctx, p.credential, card.Token)
	if err != nil {
		return nil, nil, external(enum.STEP_GET_VERIFY_CODE, err)
	}

	logger.Info.Printf("Verification code for order %d sent to %s", order.ID, helper.MaskPhone(info.Phone))
	return info, CodeRequested{
		Order:       order,
		Receipt:     receipt,
		MaskedCard:  masked,
		Phone:       info.Phone,
		ResendAfter: p.now().Add(info.Wait),
		card:        card,
	}, nil
}

// Confirm verifies the one-time code and then pays the receipt. When the code
// was already accepted by an earlier call only the payment is retried.
func (p *Pipeline) Confirm(ctx context.Context, input ConfirmInput) error {
	if err := validation.Validate(input); err != nil {
		return err
	}

	from, err := p.begin("confirm", enum.CODE_REQUESTED)
	if err != nil {
		return err
	}
	st := from.(CodeRequested)

	if !st.card.Verified {
		if err := p.gw.VerifyCard(ctx, p.credential, st.card.Token, input.Code); err != nil {
			p.end(nil)
			return external(enum.STEP_VERIFY_CARD, err)
		}
		st.card.Verified = true
		p.set(st)
		logger.Info.Printf("Card %s verified for order %d", st.MaskedCard, st.Order.ID)
	}

	paid, err := p.pay(ctx, st)
	if err != nil {
		p.end(nil)
		return err
	}
	p.end(paid)
	return nil
}

func (p *Pipeline) pay(ctx context.Context, st CodeRequested) (State, error) {
	if !st.card.Verified {
		return nil, illegal(st.Kind(), "pay with an unverified card")
	}

	if err := p.gw.PayReceipt(ctx, p.credential, st.card.Token, st.Receipt.ReceiptID); err != nil {
		return nil, external(enum.STEP_PAY_RECEIPT, err)
	}

	logger.Info.Printf("Receipt %s paid for order %d", st.Receipt.ReceiptID, st.Order.ID)
	return VerifiedAndPaid{
		Order:      st.Order,
		Receipt:    st.Receipt,
		MaskedCard: st.MaskedCard,
		PaidAt:     p.now(),
	}, nil
}

// Abort gives up on the payment. The order stays on the server unpaid.
func (p *Pipeline) Abort(reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.busy {
		return ErrStepInProgress
	}
	if p.state.Kind().IsTerminal() {
		return illegal(p.state.Kind(), "abort")
	}

	failed := Failed{Reason: reason}
	if _, ok := p.state.(Idle); !ok {
		order, receipt := orderOf(p.state)
		failed.Order, failed.Receipt = &order, &receipt
	}
	p.state = failed
	return nil
}

func orderOf(s State) (types.OrderRecord, types.ReceiptHandle) {
	switch st := s.(type) {
	case ReceiptCreated:
		return st.Order, st.Receipt
	case CardTokenized:
		return st.Order, st.Receipt
	case CodeRequested:
		return st.Order, st.Receipt
	case VerifiedAndPaid:
		return st.Order, st.Receipt
	}
	return types.OrderRecord{}, types.ReceiptHandle{}
}

// StepOf returns the failed step of err, if it came from the store API.
func StepOf(err error) (enum.PaymentStepEnum, bool) {
	var extErr *ExternalServiceError
	if errors.As(err, &extErr) {
		return extErr.Step, true
	}
	return "", false
}
