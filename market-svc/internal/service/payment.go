package service

import (
	"context"
	"errors"
	"strings"

	"quickbite/market-svc/internal/domain"
	"quickbite/market-svc/internal/mpesa"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
	"quickbite/pkg/events"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

type PaymentService struct {
	orders    OrderRepository
	payments  PaymentRepository
	pending   PendingPushes
	gateway   PaymentGateway
	publisher EventPublisher
	log       *logger.Logger
}

func NewPaymentService(orders OrderRepository, payments PaymentRepository, pending PendingPushes,
	gateway PaymentGateway, publisher EventPublisher, log *logger.Logger) *PaymentService {
	if log == nil {
		log = logger.Nop()
	}
	return &PaymentService{
		orders:    orders,
		payments:  payments,
		pending:   pending,
		gateway:   gateway,
		publisher: publisher,
		log:       log.WithComponent("payments"),
	}
}

// unpaidOrderOf loads an order the customer owns and that is still unpaid.
func (s *PaymentService) unpaidOrderOf(ctx context.Context, orderID, customerID int64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	if order.Paid {
		return nil, apperr.Conflict("order %d is already paid", orderID)
	}
	return order, nil
}

// Record settles an order directly. A supplied amount must equal the total.
func (s *PaymentService) Record(ctx context.Context, orderID, customerID int64, in domain.PaymentInput) (*domain.Payment, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = domain.MethodCash
	}

	order, err := s.unpaidOrderOf(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}
	if in.Amount != nil && !in.Amount.Equal(order.TotalPrice) {
		return nil, apperr.Validation("amount %s does not match order total %s",
			in.Amount.StringFixed(2), order.TotalPrice.StringFixed(2))
	}

	payment := &domain.Payment{
		OrderID: orderID,
		Amount:  order.TotalPrice,
		Method:  method,
	}
	guard := domain.SettleGuard{CustomerID: &customerID, ExpectTotal: &order.TotalPrice}
	if err := s.payments.SettleOrder(ctx, payment, guard); err != nil {
		if apperr.KindOf(err) == apperr.KindConflict {
			s.log.Warn("duplicate payment rejected", "order_id", orderID)
		}
		return nil, err
	}

	s.log.Info("payment recorded", "order_id", orderID, "payment_id", payment.ID, "method", method)
	s.publishSettled(ctx, payment)
	return payment, nil
}

// InitiatePush starts an M-Pesa STK push. Only one push per order may be
// pending; the order is untouched until the callback settles it.
func (s *PaymentService) InitiatePush(ctx context.Context, orderID, customerID int64, phone string) (*mpesa.PushResponse, error) {
	msisdn, err := mpesa.NormalizePhone(phone)
	if err != nil {
		return nil, err
	}
	order, err := s.unpaidOrderOf(ctx, orderID, customerID)
	if err != nil {
		return nil, err
	}

	reserved, err := s.pending.Reserve(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, apperr.Conflict("a payment request for order %d is already pending", orderID)
	}

	reference := domain.OrderReference(orderID)
	resp, err := s.gateway.StkPush(ctx, mpesa.PushRequest{
		Phone:     msisdn,
		Amount:    order.TotalPrice,
		Reference: reference,
		Desc:      "Payment for " + reference,
	})
	if err != nil {
		if releaseErr := s.pending.Release(ctx, orderID); releaseErr != nil {
			s.log.Error("release pending push", "order_id", orderID, "error", releaseErr)
		}
		s.log.Warn("stk push failed", "order_id", orderID, "error", err)
		return nil, err
	}

	if err := s.pending.Attach(ctx, orderID, resp.CheckoutRequestID, reference); err != nil {
		s.log.Error("remember pending push", "order_id", orderID, "error", err)
	}
	s.log.Info("stk push sent", "order_id", orderID, "checkout_request_id", resp.CheckoutRequestID)
	return resp, nil
}

// SettleFromCallback applies a gateway callback. It returns a nil payment
// when nothing was settled: a failed result or an already-paid order. A
// reported amount below the order total is rejected and leaves the order unpaid.
func (s *PaymentService) SettleFromCallback(ctx context.Context, cb *mpesa.Callback) (*domain.Payment, error) {
	res := cb.Result()

	reference := res.AccountReference()
	if reference == "" && res.CheckoutRequestID != "" {
		ref, err := s.pending.Lookup(ctx, res.CheckoutRequestID)
		if err != nil {
			return nil, err
		}
		reference = ref
	}
	orderID, err := domain.ParseOrderReference(reference)
	if err != nil {
		s.log.Warn("callback with bad reference", "checkout_request_id", res.CheckoutRequestID, "reference", reference)
		return nil, err
	}

	if !res.Succeeded() {
		s.log.Info("stk push not completed", "order_id", orderID, "result_code", res.ResultCode, "result_desc", res.ResultDesc)
		s.clearPending(ctx, orderID, res.CheckoutRequestID)
		return nil, nil
	}

	amount, err := res.Amount()
	if err != nil {
		return nil, apperr.Validation("%v", err)
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Paid {
		s.log.Info("callback for paid order ignored", "order_id", orderID)
		s.clearPending(ctx, orderID, res.CheckoutRequestID)
		return nil, nil
	}

	if amount.LessThan(order.TotalPrice) {
		s.log.Warn("callback amount below order total", "order_id", orderID,
			"amount", amount.StringFixed(2), "total", order.TotalPrice.StringFixed(2), "receipt", res.Receipt())
		s.clearPending(ctx, orderID, res.CheckoutRequestID)
		return nil, apperr.Validation("paid amount %s is below order total %s",
			amount.StringFixed(2), order.TotalPrice.StringFixed(2))
	}

	payment := &domain.Payment{
		OrderID:    orderID,
		Amount:     amount,
		Method:     domain.MethodMpesa,
		ExternalID: res.Receipt(),
	}
	err = s.payments.SettleOrder(ctx, payment, domain.SettleGuard{ExpectTotal: &order.TotalPrice})
	if errors.Is(err, apperr.ErrConflict) {
		s.log.Info("callback lost settlement race", "order_id", orderID)
		s.clearPending(ctx, orderID, res.CheckoutRequestID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.clearPending(ctx, orderID, res.CheckoutRequestID)
	s.log.Info("mpesa payment settled", "order_id", orderID, "receipt", payment.ExternalID)
	s.publishSettled(ctx, payment)
	return payment, nil
}

func (s *PaymentService) clearPending(ctx context.Context, orderID int64, checkoutID string) {
	if err := s.pending.Clear(ctx, orderID, checkoutID); err != nil {
		s.log.Error("clear pending push", "order_id", orderID, "error", err)
	}
}

func (s *PaymentService) List(ctx context.Context, p session.Principal) ([]domain.Payment, error) {
	id := p.ActorID
	var f domain.PaymentFilter
	switch p.Role {
	case session.RoleCustomer:
		f.CustomerID = &id
	case session.RoleRestaurant:
		f.RestaurantID = &id
	case session.RoleAdmin:
	default:
		return nil, apperr.Forbidden("role %s cannot list payments", p.Role)
	}
	return s.payments.ListPayments(ctx, f)
}

func (s *PaymentService) publishSettled(ctx context.Context, p *domain.Payment) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.Message{
		Type:         events.TypePaymentSettled,
		OrderID:      p.OrderID,
		RestaurantID: p.RestaurantID,
		CustomerID:   p.CustomerID,
		Amount:       p.Amount,
		Timestamp:    civiltime.Now(),
	})
	if err != nil {
		s.log.Error("event publish failed", "type", events.TypePaymentSettled, "order_id", p.OrderID, "error", err)
	}
}

var _ PaymentServiceInterface = (*PaymentService)(nil)
