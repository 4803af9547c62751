package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/civiltime"
	"quickbite/pkg/events"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

type OrderService struct {
	orders    OrderRepository
	items     CatalogRepository
	accounts  AccountRepository
	pending   PendingPushes
	publisher EventPublisher
	qr        QRGenerator
	publicURL string
	log       *logger.Logger
}

func NewOrderService(orders OrderRepository, items CatalogRepository, accounts AccountRepository,
	pending PendingPushes, publisher EventPublisher, qr QRGenerator, publicURL string, log *logger.Logger) *OrderService {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		orders:    orders,
		items:     items,
		accounts:  accounts,
		pending:   pending,
		publisher: publisher,
		qr:        qr,
		publicURL: strings.TrimSuffix(publicURL, "/"),
		log:       log.WithComponent("orders"),
	}
}

// mergeLines validates quantities and folds duplicate item ids together,
// keeping first-seen order.
func mergeLines(reqs []domain.LineRequest) ([]domain.LineRequest, error) {
	if len(reqs) == 0 {
		return nil, apperr.Validation("at least one line is required")
	}
	index := map[int64]int{}
	var merged []domain.LineRequest
	for _, req := range reqs {
		if req.Quantity < 1 {
			return nil, apperr.Validation("quantity must be at least 1")
		}
		if i, ok := index[req.MenuItemID]; ok {
			merged[i].Quantity += req.Quantity
			continue
		}
		index[req.MenuItemID] = len(merged)
		merged = append(merged, req)
	}
	return merged, nil
}

// priceLines snapshots current catalog prices. Items that are missing,
// belong to another restaurant or are unavailable are dropped.
func (s *OrderService) priceLines(ctx context.Context, restaurantID int64, reqs []domain.LineRequest) ([]domain.OrderLine, decimal.Decimal, error) {
	ids := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.MenuItemID)
	}
	items, err := s.items.GetItems(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	var (
		lines []domain.OrderLine
		total = decimal.Zero
	)
	for _, req := range reqs {
		item, ok := items[req.MenuItemID]
		if !ok || item.RestaurantID != restaurantID || !item.Available {
			s.log.Debug("order line dropped", "menu_item_id", req.MenuItemID, "restaurant_id", restaurantID)
			continue
		}
		itemID := item.ID
		line := domain.OrderLine{
			MenuItemID: &itemID,
			Name:       item.Name,
			UnitPrice:  item.UnitPrice,
			Quantity:   req.Quantity,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}
	if len(lines) == 0 {
		return nil, decimal.Zero, apperr.Validation("none of the requested items can be ordered")
	}
	return lines, total, nil
}

func (s *OrderService) Create(ctx context.Context, customerID int64, in domain.OrderInput) (*domain.Order, error) {
	address := strings.TrimSpace(in.DeliveryAddress)
	if address == "" {
		return nil, apperr.Validation("delivery address is required")
	}
	reqs, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetAccount(ctx, session.RoleRestaurant, in.RestaurantID); err != nil {
		return nil, err
	}

	lines, total, err := s.priceLines(ctx, in.RestaurantID, reqs)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		CustomerID:      customerID,
		RestaurantID:    in.RestaurantID,
		DeliveryAddress: address,
		TotalPrice:      total,
		Lines:           lines,
	}
	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	order.SyncStatus()

	s.log.Info("order created", "order_id", order.ID, "restaurant_id", order.RestaurantID, "total", order.TotalPrice.StringFixed(2))
	s.publish(ctx, orderEvent(events.TypeOrderPlaced, order))
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, p session.Principal, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(p) {
		return nil, apperr.NotFound("order %d not found", orderID)
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, p session.Principal) ([]domain.Order, error) {
	return s.orders.ListOrders(ctx, domain.FilterFor(p))
}

func (s *OrderService) AssignAgent(ctx context.Context, orderID, agentID, restaurantID int64) (*domain.Order, error) {
	order, err := s.Get(ctx, session.Principal{ActorID: restaurantID, Role: session.RoleRestaurant}, orderID)
	if err != nil {
		return nil, err
	}

	agent, err := s.accounts.GetAccount(ctx, session.RoleAgent, agentID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.Validation("agent %d does not work for this restaurant", agentID)
	}
	if err != nil {
		return nil, err
	}
	if agent.RestaurantID == nil || *agent.RestaurantID != restaurantID {
		return nil, apperr.Validation("agent %d does not work for this restaurant", agentID)
	}

	if err := s.orders.AssignAgent(ctx, orderID, agentID); err != nil {
		return nil, err
	}
	order.AgentID = &agentID
	s.log.Info("agent assigned", "order_id", orderID, "agent_id", agentID)
	return order, nil
}

// SetDeliveryTime records completion. The timestamp is not compared to now.
func (s *OrderService) SetDeliveryTime(ctx context.Context, orderID int64, timestamp string, agentID int64) (*domain.Order, error) {
	order, err := s.Get(ctx, session.Principal{ActorID: agentID, Role: session.RoleAgent}, orderID)
	if err != nil {
		return nil, err
	}
	at, err := civiltime.Parse(timestamp)
	if err != nil {
		return nil, apperr.Validation("unrecognised delivery time %q", timestamp)
	}
	if err := s.orders.SetDeliveryTime(ctx, orderID, at); err != nil {
		return nil, err
	}
	order.DeliveryTime = &at
	order.SyncStatus()
	s.log.Info("order delivered", "order_id", orderID, "agent_id", agentID)
	return order, nil
}

// EditLines replaces the line set of an unpaid order, re-pricing every line
// at current catalog prices. An order with an STK push in flight is frozen
// until the callback lands or the push slot expires.
func (s *OrderService) EditLines(ctx context.Context, orderID int64, lines []domain.LineRequest, customerID int64) (*domain.Order, error) {
	reqs, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}
	order, err := s.Get(ctx, session.Principal{ActorID: customerID, Role: session.RoleCustomer}, orderID)
	if err != nil {
		return nil, err
	}
	if order.Paid {
		return nil, apperr.Conflict("order %d is already paid", orderID)
	}
	if s.pending != nil {
		inFlight, err := s.pending.Pending(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if inFlight {
			return nil, apperr.Conflict("order %d has a payment request pending", orderID)
		}
	}

	priced, total, err := s.priceLines(ctx, order.RestaurantID, reqs)
	if err != nil {
		return nil, err
	}
	previous := orderEvent(events.TypeOrderUpdated, order).Lines

	order.Lines = priced
	order.TotalPrice = total
	if err := s.orders.ReplaceLines(ctx, order); err != nil {
		return nil, err
	}
	order.SyncStatus()

	s.log.Info("order lines replaced", "order_id", orderID, "total", total.StringFixed(2))
	msg := orderEvent(events.TypeOrderUpdated, order)
	msg.PreviousLines = previous
	s.publish(ctx, msg)
	return order, nil
}

// Delete is open to the owning customer and the owning restaurant.
func (s *OrderService) Delete(ctx context.Context, p session.Principal, orderID int64) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	owner := (p.Role == session.RoleCustomer && order.CustomerID == p.ActorID) ||
		(p.Role == session.RoleRestaurant && order.RestaurantID == p.ActorID)
	if !owner {
		return apperr.NotFound("order %d not found", orderID)
	}

	if err := s.orders.DeleteOrder(ctx, orderID); err != nil {
		return err
	}
	s.log.Info("order deleted", "order_id", orderID, "by_role", p.Role)
	s.publish(ctx, orderEvent(events.TypeOrderDeleted, order))
	return nil
}

// QRCode renders a PNG linking to the review page of the order.
func (s *OrderService) QRCode(ctx context.Context, p session.Principal, orderID int64) ([]byte, error) {
	if _, err := s.Get(ctx, p, orderID); err != nil {
		return nil, err
	}
	return s.qr.Generate(s.ReviewLink(orderID))
}

func (s *OrderService) ReviewLink(orderID int64) string {
	return s.publicURL + "/orders/" + strconv.FormatInt(orderID, 10) + "/review"
}

func orderEvent(kind string, o *domain.Order) events.Message {
	msg := events.Message{
		Type:         kind,
		OrderID:      o.ID,
		RestaurantID: o.RestaurantID,
		CustomerID:   o.CustomerID,
		Timestamp:    civiltime.Now(),
	}
	if o.Paid {
		msg.Amount = o.TotalPrice
	}
	for _, line := range o.Lines {
		if line.MenuItemID == nil {
			continue
		}
		msg.Lines = append(msg.Lines, events.Line{MenuItemID: *line.MenuItemID, Quantity: line.Quantity})
	}
	return msg
}

func (s *OrderService) publish(ctx context.Context, msg events.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.log.Error("event publish failed", "type", msg.Type, "order_id", msg.OrderID, "error", err)
	}
}

var _ OrderServiceInterface = (*OrderService)(nil)
