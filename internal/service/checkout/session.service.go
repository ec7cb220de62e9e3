package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-checkout/internal/common/enum"
	"storefront-checkout/internal/common/models"
	types "storefront-checkout/internal/common/type"
	"storefront-checkout/internal/pkg/helper"
	"storefront-checkout/internal/pkg/logger"
	"storefront-checkout/internal/pkg/realtime"
	"storefront-checkout/internal/pkg/validation"
	"storefront-checkout/internal/service/order"
	"storefront-checkout/internal/service/payment"
	"storefront-checkout/internal/service/pricing"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const ledgerTimeout = 10 * time.Second

// Session is one checkout screen: its own realtime channel, order submitter
// and, for online orders, payment pipeline.
type Session struct {
	ID string

	user      types.UserWithAuth
	deps      *Deps
	conn      Connection
	submitter order.ISubmitter
	notifier  *Notifier
	now       func() time.Time

	mu          sync.Mutex
	processing  bool
	running     int
	pipeline    payment.IPipeline
	order       *types.OrderRecord
	attemptID   string
	paymentType enum.PaymentTypeEnum
	cartCleared bool
	closed      bool
	everOpen    bool
	lost        bool
	lastSeen    time.Time
	unsubscribe func()
}

func newSession(user types.UserWithAuth, deps *Deps) *Session {
	id := uuid.NewString()
	conn := deps.NewConnection()

	s := &Session{
		ID:        id,
		user:      user,
		deps:      deps,
		conn:      conn,
		submitter: order.NewSubmitter(conn, deps.Options.OrderTimeout),
		notifier:  NewNotifier(id, user.ID, deps.Publisher, deps.Pool),
		now:       time.Now,
		lastSeen:  time.Now(),
	}
	s.unsubscribe = conn.OnStateChange(s.onConnectionState)
	return s
}

// open dials the channel. A failed dial is not fatal: the connection keeps
// retrying on its own and the session reports CONNECTING.
func (s *Session) open(ctx context.Context) error {
	if err := s.conn.Connect(ctx, s.deps.Options.Endpoint, s.user.Credential); err != nil {
		s.notifier.Notify(enum.NOTIFY_WARNING, "Failed to connect to the server. Retrying...")
		return err
	}
	return nil
}

func (s *Session) Reconnect(ctx context.Context) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	return s.conn.Reconnect(ctx)
}

// Close ends the channel cleanly. Payment steps already running finish and
// still reach the ledger.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.mu.Unlock()

	err := s.conn.Close()
	s.submitter.Close()
	unsubscribe()
	return err
}

func (s *Session) onConnectionState(state enum.ConnectionStateEnum) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	wasOpen, wasLost := s.everOpen, s.lost
	switch state {
	case enum.OPEN:
		s.everOpen = true
		s.lost = false
	case enum.CONNECTING, enum.CLOSED:
		s.lost = s.everOpen
	}
	s.mu.Unlock()

	switch {
	case state == enum.OPEN && wasLost:
		s.notifier.Notify(enum.NOTIFY_SUCCESS, "Connection to the server restored.")
	case state == enum.CONNECTING && wasOpen && !wasLost:
		s.notifier.Notify(enum.NOTIFY_WARNING, "Connection to the server was lost. Attempting to reconnect...")
	case state == enum.CLOSED && wasOpen:
		s.notifier.Notify(enum.NOTIFY_ERROR, "Connection to the server is closed. Reconnect to continue.")
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// idle reports whether nothing used or ran in the session for ttl.
func (s *Session) idle(ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.processing && s.running == 0 && s.now().Sub(s.lastSeen) >= ttl
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	view := SessionView{
		ID:          s.ID,
		Processing:  s.processing,
		Order:       s.order,
		PaymentType: s.paymentType,
		CartCleared: s.cartCleared,
	}
	pipeline := s.pipeline
	s.mu.Unlock()

	view.Connection = s.conn.State()
	if pipeline != nil {
		pv := payment.Describe(pipeline.State())
		view.Payment = &pv
	}
	view.Notifications = s.notifier.List()
	return view
}

func (s *Session) Notifications() []Notification {
	return s.notifier.List()
}

// Quote prices the current cart for a delivery selection without submitting.
func (s *Session) Quote(ctx context.Context, delivery enum.DeliveryTypeEnum) (*Quote, error) {
	cart, err := s.deps.Store.GetCart(ctx, s.user.Credential)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	settings := s.deps.Settings.Settings(ctx)
	totals, err := pricing.ComputeTotals(*cart, delivery, settings)
	if err != nil {
		return nil, err
	}

	free := delivery == enum.DELIVERY && totals.FreeDelivery()
	return &Quote{
		Totals:                 *totals,
		DeliveryType:           delivery,
		FreeDelivery:           free,
		MinimumFreeDeliverySum: settings.MinimumFreeDeliverySum,
		Display: QuoteDisplay{
			Subtotal: helper.FormatSum(totals.Subtotal),
			Delivery: lo.Ternary(totals.DeliveryCost == 0, "free", helper.FormatSum(totals.DeliveryCost)),
			Total:    helper.FormatSum(totals.Total),
		},
	}, nil
}

// acquire takes the in-flight guard. It fails while a submission runs or an
// online payment has not reached a terminal state.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.processing {
		return ErrAlreadyProcessing
	}
	if s.pipeline != nil && !s.pipeline.State().Kind().IsTerminal() {
		return ErrAlreadyProcessing
	}
	s.processing = true
	return nil
}

func (s *Session) releaseGuard() {
	s.mu.Lock()
	s.processing = false
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// SubmitOrder turns the cart into an order. Cash orders are done once the
// server confirms them; online orders continue with the receipt.
func (s *Session) SubmitOrder(ctx context.Context, input *SubmitOrderInput) (*SubmitResult, error) {
	if err := validation.Validate(input); err != nil {
		return nil, err
	}
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.releaseGuard()

	if s.conn.State() != enum.OPEN {
		s.notifier.Notify(enum.NOTIFY_WARNING, "Not connected to the server. Please try again later.")
		return nil, realtime.ErrNotConnected
	}

	cart, err := s.deps.Store.GetCart(ctx, s.user.Credential)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	profile, err := s.deps.Store.GetProfile(ctx, s.user.Credential)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	totals, err := pricing.ComputeTotals(*cart, input.DeliveryType, s.deps.Settings.Settings(ctx))
	if err != nil {
		return nil, err
	}

	req := s.buildRequest(input, cart, profile, totals)
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	attemptID := s.recordAttempt(req)

	// the send is irrevocable: wait for the server's answer even if the
	// caller leaves, so the guard and the ledger follow the real outcome
	record, err := s.submitter.Submit(context.WithoutCancel(ctx), req)
	if err != nil {
		s.submitFailed(attemptID, req, err)
		return nil, err
	}

	s.mu.Lock()
	s.order = record
	s.attemptID = attemptID
	s.paymentType = req.PaymentType
	s.pipeline = nil
	s.cartCleared = false
	s.mu.Unlock()

	s.updateAttempt(attemptID, map[string]any{
		"order_id":     record.ID,
		"order_number": record.OrderNumber,
		"status":       enum.STATUS_CREATED.ToString(),
	})
	s.notifier.Emit(Event{
		Type:        EventOrderCreated,
		AttemptID:   attemptID,
		OrderID:     record.ID,
		OrderNumber: record.OrderNumber,
		Amount:      req.Amount,
		Status:      enum.STATUS_CREATED,
	})

	result := &SubmitResult{
		AttemptID: attemptID,
		Order:     *record,
		Totals:    *totals,
		Type:      req.PaymentType,
		Delivery:  req.DeliveryType,
	}

	if req.PaymentType == enum.CASH {
		s.completeCash(ctx, attemptID, record, req.Amount)
		return result, nil
	}

	view, err := s.startPayment(ctx, attemptID, record, req.Amount)
	result.Payment = view
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *Session) buildRequest(input *SubmitOrderInput, cart *types.CartSnapshot, profile *types.UserProfile, totals *pricing.Totals) *types.OrderRequest {
	receiver := types.Receiver{
		FirstName: lo.Ternary(input.FirstName != "", input.FirstName, profile.FirstName),
		LastName:  lo.Ternary(input.LastName != "", input.LastName, profile.LastName),
		Phone:     lo.Ternary(input.Phone != "", input.Phone, profile.Phone),
	}

	// coordinates only travel with delivery orders
	if input.DeliveryType == enum.DELIVERY {
		loc := s.deps.Options.DefaultLocation
		receiver.Longitude = lo.Ternary(input.Longitude != nil, input.Longitude, lo.ToPtr(loc.Longitude))
		receiver.Latitude = lo.Ternary(input.Latitude != nil, input.Latitude, lo.ToPtr(loc.Latitude))
	}

	return &types.OrderRequest{
		Amount:       totals.Total,
		PaymentType:  input.PaymentType,
		DeliveryType: input.DeliveryType,
		UseCashback:  input.UseCashback,
		Receiver:     receiver,
		Items: lo.Map(cart.Items, func(item types.CartItem, _ int) types.OrderItem {
			return types.OrderItem{Product: item.ProductID, Price: item.UnitPrice, Quantity: item.Quantity}
		}),
	}
}

func (s *Session) submitFailed(attemptID string, req *types.OrderRequest, err error) {
	switch {
	case errors.Is(err, order.ErrConnectionLost), errors.Is(err, order.ErrCorrelationTimeout),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.updateAttempt(attemptID, map[string]any{
			"status":        enum.STATUS_OUTCOME_UNKNOWN.ToString(),
			"error_message": err.Error(),
		})
		s.notifier.Notify(enum.NOTIFY_WARNING, "We could not confirm your order. Check your order history before trying again.")
		s.notifier.Emit(Event{
			Type:      EventOrderUnknown,
			AttemptID: attemptID,
			Amount:    req.Amount,
			Status:    enum.STATUS_OUTCOME_UNKNOWN,
		})
	default:
		s.updateAttempt(attemptID, map[string]any{
			"status":        enum.STATUS_NOT_SENT.ToString(),
			"error_message": err.Error(),
		})
		if errors.Is(err, realtime.ErrNotConnected) {
			s.notifier.Notify(enum.NOTIFY_WARNING, "Not connected to the server. Please try again later.")
		}
	}
}

func (s *Session) completeCash(ctx context.Context, attemptID string, record *types.OrderRecord, amount int64) {
	s.clearCartOnce(ctx)
	s.updateAttempt(attemptID, map[string]any{"status": enum.STATUS_CASH_CONFIRMED.ToString()})
	s.notifier.Notify(enum.NOTIFY_SUCCESS, fmt.Sprintf("Order #%s has been created successfully.", record.OrderNumber))
	s.notifier.Emit(Event{
		Type:        EventCashConfirmed,
		AttemptID:   attemptID,
		OrderID:     record.ID,
		OrderNumber: record.OrderNumber,
		Amount:      amount,
		Status:      enum.STATUS_CASH_CONFIRMED,
	})
}

func (s *Session) startPayment(ctx context.Context, attemptID string, record *types.OrderRecord, amount int64) (*payment.View, error) {
	pipeline := payment.NewPipeline(s.deps.Store, s.user.Credential)

	s.mu.Lock()
	s.pipeline = pipeline
	s.mu.Unlock()

	err := s.runStep(ctx, func(stepCtx context.Context) error {
		err := pipeline.Start(stepCtx, *record, amount)
		s.syncPayment(attemptID, pipeline, err)
		if err != nil {
			s.notifier.Notify(enum.NOTIFY_ERROR, fmt.Sprintf("Order #%s was created but the receipt could not be created. Please try again later.", record.OrderNumber))
			return err
		}
		s.notifier.Notify(enum.NOTIFY_SUCCESS, fmt.Sprintf("Order #%s has been created successfully. Enter your card to pay %s.", record.OrderNumber, helper.FormatSum(amount)))
		return nil
	})

	if errors.Is(err, ErrWorkerUnavailable) {
		// the receipt was never requested; leave nothing half started
		if abortErr := pipeline.Abort(err.Error()); abortErr == nil {
			s.syncPayment(attemptID, pipeline, nil)
		}
	}

	view := payment.Describe(pipeline.State())
	return &view, err
}

func (s *Session) activePipeline() (payment.IPipeline, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, "", ErrSessionClosed
	}
	if s.pipeline == nil {
		return nil, "", ErrNoPayment
	}
	s.lastSeen = s.now()
	return s.pipeline, s.attemptID, nil
}

func (s *Session) SubmitCard(ctx context.Context, input *payment.CardInput) (*types.VerifyCodeInfo, error) {
	pipeline, attemptID, err := s.activePipeline()
	if err != nil {
		return nil, err
	}

	var info *types.VerifyCodeInfo
	err = s.runStep(ctx, func(stepCtx context.Context) error {
		res, err := pipeline.SubmitCard(stepCtx, *input)
		s.syncPayment(attemptID, pipeline, err)
		if err != nil {
			s.notifyPaymentError(err)
			return err
		}
		s.notifyCodeSent(res)
		info = res
		return nil
	})
	return info, err
}

func (s *Session) ResendCode(ctx context.Context) (*types.VerifyCodeInfo, error) {
	pipeline, attemptID, err := s.activePipeline()
	if err != nil {
		return nil, err
	}

	var info *types.VerifyCodeInfo
	err = s.runStep(ctx, func(stepCtx context.Context) error {
		res, err := pipeline.ResendCode(stepCtx)
		s.syncPayment(attemptID, pipeline, err)
		if err != nil {
			s.notifyPaymentError(err)
			return err
		}
		s.notifyCodeSent(res)
		info = res
		return nil
	})
	return info, err
}

// ConfirmPayment verifies the code and pays. The cart is emptied once the
// payment settles.
func (s *Session) ConfirmPayment(ctx context.Context, input *payment.ConfirmInput) error {
	pipeline, attemptID, err := s.activePipeline()
	if err != nil {
		return err
	}

	return s.runStep(ctx, func(stepCtx context.Context) error {
		err := pipeline.Confirm(stepCtx, *input)
		s.syncPayment(attemptID, pipeline, err)
		if err != nil {
			s.notifyPaymentError(err)
			return err
		}

		s.clearCartOnce(stepCtx)
		s.notifier.Notify(enum.NOTIFY_SUCCESS, "Your order has been successfully paid.")
		return nil
	})
}

func (s *Session) AbortPayment(reason string) error {
	pipeline, attemptID, err := s.activePipeline()
	if err != nil {
		return err
	}

	if reason == "" {
		reason = "cancelled by user"
	}
	if err := pipeline.Abort(reason); err != nil {
		return err
	}

	s.syncPayment(attemptID, pipeline, nil)
	s.notifier.Notify(enum.NOTIFY_INFO, "Payment cancelled. The order stays unpaid.")
	return nil
}

// runStep runs a payment step on the worker pool. The step gets a context
// detached from ctx: when the caller goes away the step still finishes and
// records its outcome; only the caller stops waiting.
func (s *Session) runStep(ctx context.Context, step func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.deps.Options.StepTimeout)
	done := make(chan error, 1)

	s.mu.Lock()
	s.running++
	s.mu.Unlock()

	err := s.deps.Pool.Submit(func() {
		defer func() {
			cancel()
			s.mu.Lock()
			s.running--
			s.lastSeen = s.now()
			s.mu.Unlock()
		}()
		done <- step(stepCtx)
	})
	if err != nil {
		cancel()
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrWorkerUnavailable, err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Warning.Printf("Session %s stopped waiting for a payment step: %v", s.ID, ctx.Err())
		return ctx.Err()
	}
}

// syncPayment mirrors the pipeline state into the ledger and the event stream.
func (s *Session) syncPayment(attemptID string, pipeline payment.IPipeline, stepErr error) {
	state := pipeline.State()
	updates := map[string]any{"payment_state": state.Kind().ToString()}
	ev := Event{AttemptID: attemptID}

	switch st := state.(type) {
	case payment.ReceiptCreated:
		updates["receipt_id"] = st.Receipt.ReceiptID
		updates["status"] = enum.STATUS_PAYMENT_PENDING.ToString()
		ev.Type, ev.Status = EventPaymentPending, enum.STATUS_PAYMENT_PENDING
	case payment.VerifiedAndPaid:
		updates["status"] = enum.STATUS_PAID.ToString()
		updates["paid_at"] = st.PaidAt
		updates["failed_step"] = ""
		updates["error_message"] = ""
		ev.Type, ev.Status = EventPaymentPaid, enum.STATUS_PAID
	case payment.Failed:
		updates["status"] = enum.STATUS_PAYMENT_FAILED.ToString()
		updates["failed_step"] = st.Step.ToString()
		updates["error_message"] = st.Reason
		ev.Type, ev.Status, ev.Step = EventPaymentFailed, enum.STATUS_PAYMENT_FAILED, st.Step
	}

	if step, ok := payment.StepOf(stepErr); ok && state.Kind() != enum.FAILED {
		updates["failed_step"] = step.ToString()
		updates["error_message"] = stepErr.Error()
	}

	s.updateAttempt(attemptID, updates)

	if ev.Type != "" && (stepErr == nil || state.Kind() == enum.FAILED) {
		view := payment.Describe(state)
		ev.OrderID, ev.OrderNumber, ev.Amount = view.OrderID, view.OrderNumber, view.Amount
		s.notifier.Emit(ev)
	}
}

func (s *Session) notifyCodeSent(info *types.VerifyCodeInfo) {
	s.notifier.Notify(enum.NOTIFY_SUCCESS, fmt.Sprintf(
		"Verification code sent to %s. Please wait %d seconds before requesting again.",
		helper.MaskPhone(info.Phone), int64(info.Wait/time.Second),
	))
}

func (s *Session) notifyPaymentError(err error) {
	var extErr *payment.ExternalServiceError
	if errors.As(err, &extErr) {
		s.notifier.Notify(enum.NOTIFY_ERROR, fmt.Sprintf("Payment step %s failed: %s", extErr.Step.ToString(), extErr.Message))
	}
}

// clearCartOnce empties the store cart at most once per order. A failed
// clear is reported but not retried, the order itself already succeeded.
func (s *Session) clearCartOnce(ctx context.Context) {
	s.mu.Lock()
	if s.cartCleared {
		s.mu.Unlock()
		return
	}
	s.cartCleared = true
	s.mu.Unlock()

	if err := s.deps.Store.ClearCart(ctx, s.user.Credential); err != nil {
		logger.Warning.Printf("Session %s could not clear the cart: %v", s.ID, err)
		s.notifier.Notify(enum.NOTIFY_WARNING, "Your order is placed, but the cart could not be emptied.")
	}
}

func (s *Session) recordAttempt(req *types.OrderRequest) string {
	id := uuid.NewString()
	if s.deps.Ledger == nil {
		return id
	}

	items, err := helper.JSONToByte(req.Items)
	if err != nil {
		logger.Error.Printf("Failed to encode items of attempt %s: %v", id, err)
	}

	attempt := &models.CheckoutAttempt{
		ID:           id,
		SessionID:    s.ID,
		UserID:       s.user.ID,
		Amount:       req.Amount,
		PaymentType:  req.PaymentType.ToString(),
		DeliveryType: req.DeliveryType.ToString(),
		UseCashback:  req.UseCashback,
		Items:        models.JSONB(items),
		Status:       enum.STATUS_SUBMITTED.ToString(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	if err := s.deps.Ledger.Create(ctx, attempt); err != nil {
		logger.Error.Printf("Failed to record checkout attempt %s: %v", id, err)
	}
	return id
}

func (s *Session) updateAttempt(attemptID string, updates map[string]any) {
	if s.deps.Ledger == nil || attemptID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	if err := s.deps.Ledger.Update(ctx, attemptID, updates); err != nil {
		logger.Error.Printf("Failed to update checkout attempt %s: %v", attemptID, err)
	}
}
