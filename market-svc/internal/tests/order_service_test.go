package tests

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quickbite/market-svc/internal/domain"
	"quickbite/market-svc/internal/mocks"
	"quickbite/market-svc/internal/service"
	"quickbite/pkg/apperr"
	"quickbite/pkg/events"
	"quickbite/pkg/session"
)

type orderDeps struct {
	orders   *mocks.OrderRepository
	items    *mocks.CatalogRepository
	accounts *mocks.AccountRepository
	pending  *mocks.PendingPushes
	pub      *mocks.EventPublisher
	qr       *mocks.QRGenerator
}

func newOrderDeps() orderDeps {
	return orderDeps{
		orders:   new(mocks.OrderRepository),
		items:    new(mocks.CatalogRepository),
		accounts: new(mocks.AccountRepository),
		pending:  new(mocks.PendingPushes),
		pub:      new(mocks.EventPublisher),
		qr:       new(mocks.QRGenerator),
	}
}

func (d orderDeps) service() *service.OrderService {
	return service.NewOrderService(d.orders, d.items, d.accounts, d.pending, d.pub, d.qr, "https://quickbite.test/", nil)
}

func (d orderDeps) assertExpectations(t *testing.T) {
	d.orders.AssertExpectations(t)
	d.items.AssertExpectations(t)
	d.accounts.AssertExpectations(t)
	d.pending.AssertExpectations(t)
	d.pub.AssertExpectations(t)
	d.qr.AssertExpectations(t)
}

func catalogFixture() map[int64]domain.MenuItem {
	return map[int64]domain.MenuItem{
		1: {ID: 1, RestaurantID: 10, Name: "Pilau", UnitPrice: decimal.NewFromInt(500), Available: true},
		2: {ID: 2, RestaurantID: 10, Name: "Chapati", UnitPrice: decimal.NewFromInt(300), Available: true},
		3: {ID: 3, RestaurantID: 10, Name: "Mandazi", UnitPrice: decimal.NewFromInt(50), Available: false},
		4: {ID: 4, RestaurantID: 20, Name: "Nyama Choma", UnitPrice: decimal.NewFromInt(900), Available: true},
	}
}

func restaurantAccount(id int64) *domain.Account {
	return &domain.Account{Identity: domain.Identity{ID: id, Role: session.RoleRestaurant, Name: "Mama Oliech"}}
}

func eventOfType(kind string) any {
	return mock.MatchedBy(func(m events.Message) bool { return m.Type == kind })
}

func TestOrderService_Create(t *testing.T) {
	tests := []struct {
		name      string
		input     domain.OrderInput
		setupMock func(d orderDeps)
		wantKind  apperr.Kind
		wantTotal string
		wantLines int
	}{
		{
			name: "prices lines from catalog",
			input: domain.OrderInput{RestaurantID: 10, DeliveryAddress: "Moi Avenue", Lines: []domain.LineRequest{
				{MenuItemID: 1, Quantity: 2}, {MenuItemID: 2, Quantity: 1},
			}},
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(10)).Return(restaurantAccount(10), nil).Once()
				d.items.On("GetItems", mock.Anything, []int64{1, 2}).Return(catalogFixture(), nil).Once()
				d.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).
					Run(func(args mock.Arguments) { args.Get(1).(*domain.Order).ID = 7 }).Return(nil).Once()
				d.pub.On("Publish", mock.Anything, eventOfType(events.TypeOrderPlaced)).Return(nil).Once()
			},
			wantTotal: "1300",
			wantLines: 2,
		},
		{
			name: "merges duplicate items",
			input: domain.OrderInput{RestaurantID: 10, DeliveryAddress: "Moi Avenue", Lines: []domain.LineRequest{
				{MenuItemID: 2, Quantity: 1}, {MenuItemID: 2, Quantity: 2},
			}},
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(10)).Return(restaurantAccount(10), nil).Once()
				d.items.On("GetItems", mock.Anything, []int64{2}).Return(catalogFixture(), nil).Once()
				d.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				d.pub.On("Publish", mock.Anything, eventOfType(events.TypeOrderPlaced)).Return(nil).Once()
			},
			wantTotal: "900",
			wantLines: 1,
		},
		{
			name: "drops unavailable and foreign items",
			input: domain.OrderInput{RestaurantID: 10, DeliveryAddress: "Moi Avenue", Lines: []domain.LineRequest{
				{MenuItemID: 1, Quantity: 1}, {MenuItemID: 3, Quantity: 4}, {MenuItemID: 4, Quantity: 1}, {MenuItemID: 99, Quantity: 1},
			}},
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(10)).Return(restaurantAccount(10), nil).Once()
				d.items.On("GetItems", mock.Anything, mock.Anything).Return(catalogFixture(), nil).Once()
				d.orders.On("CreateOrder", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				d.pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantTotal: "500",
			wantLines: 1,
		},
		{
			name: "nothing orderable",
			input: domain.OrderInput{RestaurantID: 10, DeliveryAddress: "Moi Avenue", Lines: []domain.LineRequest{
				{MenuItemID: 3, Quantity: 1},
			}},
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(10)).Return(restaurantAccount(10), nil).Once()
				d.items.On("GetItems", mock.Anything, []int64{3}).Return(catalogFixture(), nil).Once()
			},
			wantKind: apperr.KindValidation,
		},
		{
			name:      "missing address",
			input:     domain.OrderInput{RestaurantID: 10, Lines: []domain.LineRequest{{MenuItemID: 1, Quantity: 1}}},
			setupMock: func(d orderDeps) {},
			wantKind:  apperr.KindValidation,
		},
		{
			name:      "zero quantity",
			input:     domain.OrderInput{RestaurantID: 10, DeliveryAddress: "x", Lines: []domain.LineRequest{{MenuItemID: 1, Quantity: 0}}},
			setupMock: func(d orderDeps) {},
			wantKind:  apperr.KindValidation,
		},
		{
			name:      "no lines",
			input:     domain.OrderInput{RestaurantID: 10, DeliveryAddress: "x"},
			setupMock: func(d orderDeps) {},
			wantKind:  apperr.KindValidation,
		},
		{
			name:  "unknown restaurant",
			input: domain.OrderInput{RestaurantID: 404, DeliveryAddress: "x", Lines: []domain.LineRequest{{MenuItemID: 1, Quantity: 1}}},
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(404)).
					Return(nil, apperr.NotFound("restaurant 404 not found")).Once()
			},
			wantKind: apperr.KindNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			testCase.setupMock(d)

			order, err := d.service().Create(context.Background(), 3, testCase.input)

			if testCase.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				assert.Equal(t, testCase.wantTotal, order.TotalPrice.String())
				assert.Len(t, order.Lines, testCase.wantLines)
				assert.Equal(t, int64(3), order.CustomerID)
				assert.False(t, order.Paid)
				assert.Equal(t, domain.StatusPending, order.Status)
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_Get(t *testing.T) {
	agentID := int64(30)
	order := &domain.Order{ID: 7, CustomerID: 3, RestaurantID: 10, AgentID: &agentID}

	tests := []struct {
		name      string
		principal session.Principal
		wantKind  apperr.Kind
	}{
		{name: "owning customer", principal: session.Principal{ActorID: 3, Role: session.RoleCustomer}},
		{name: "owning restaurant", principal: session.Principal{ActorID: 10, Role: session.RoleRestaurant}},
		{name: "assigned agent", principal: session.Principal{ActorID: 30, Role: session.RoleAgent}},
		{name: "admin", principal: session.Principal{ActorID: 1, Role: session.RoleAdmin}},
		{name: "other customer", principal: session.Principal{ActorID: 4, Role: session.RoleCustomer}, wantKind: apperr.KindNotFound},
		{name: "other agent", principal: session.Principal{ActorID: 31, Role: session.RoleAgent}, wantKind: apperr.KindNotFound},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("GetOrder", mock.Anything, int64(7)).Return(order, nil).Once()

			got, err := d.service().Get(context.Background(), testCase.principal, 7)

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
				assert.Nil(t, got)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, order, got)
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_AssignAgent(t *testing.T) {
	own, other := int64(10), int64(20)

	tests := []struct {
		name      string
		setupMock func(d orderDeps)
		wantKind  apperr.Kind
	}{
		{
			name: "agent of same restaurant",
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleAgent, int64(30)).
					Return(&domain.Account{Identity: domain.Identity{ID: 30, Role: session.RoleAgent}, RestaurantID: &own}, nil).Once()
				d.orders.On("AssignAgent", mock.Anything, int64(7), int64(30)).Return(nil).Once()
			},
		},
		{
			name: "agent of another restaurant",
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleAgent, int64(30)).
					Return(&domain.Account{Identity: domain.Identity{ID: 30, Role: session.RoleAgent}, RestaurantID: &other}, nil).Once()
			},
			wantKind: apperr.KindValidation,
		},
		{
			name: "unknown agent",
			setupMock: func(d orderDeps) {
				d.accounts.On("GetAccount", mock.Anything, session.RoleAgent, int64(30)).
					Return(nil, apperr.NotFound("agent 30 not found")).Once()
			},
			wantKind: apperr.KindValidation,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("GetOrder", mock.Anything, int64(7)).
				Return(&domain.Order{ID: 7, CustomerID: 3, RestaurantID: 10}, nil).Once()
			testCase.setupMock(d)

			order, err := d.service().AssignAgent(context.Background(), 7, 30, 10)

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				require.NotNil(t, order.AgentID)
				assert.Equal(t, int64(30), *order.AgentID)
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_AssignAgentForeignOrder(t *testing.T) {
	d := newOrderDeps()
	d.orders.On("GetOrder", mock.Anything, int64(7)).
		Return(&domain.Order{ID: 7, RestaurantID: 20}, nil).Once()

	_, err := d.service().AssignAgent(context.Background(), 7, 30, 10)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	d.assertExpectations(t)
}

func TestOrderService_SetDeliveryTime(t *testing.T) {
	agentID := int64(30)

	tests := []struct {
		name      string
		timestamp string
		wantKind  apperr.Kind
	}{
		{name: "rfc3339", timestamp: "2026-03-01T18:30:00+03:00"},
		{name: "plain datetime", timestamp: "2026-03-01 18:30"},
		{name: "garbage", timestamp: "after lunch", wantKind: apperr.KindValidation},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("GetOrder", mock.Anything, int64(7)).
				Return(&domain.Order{ID: 7, RestaurantID: 10, AgentID: &agentID, Status: domain.StatusPending}, nil).Once()
			if testCase.wantKind == "" {
				d.orders.On("SetDeliveryTime", mock.Anything, int64(7), mock.AnythingOfType("time.Time")).Return(nil).Once()
			}

			order, err := d.service().SetDeliveryTime(context.Background(), 7, testCase.timestamp, agentID)

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, domain.StatusDelivered, order.Status)
				require.NotNil(t, order.DeliveryTime)
				assert.Equal(t, 18, order.DeliveryTime.Hour())
				assert.Equal(t, time.March, order.DeliveryTime.Month())
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_SetDeliveryTimeUnassignedAgent(t *testing.T) {
	d := newOrderDeps()
	d.orders.On("GetOrder", mock.Anything, int64(7)).Return(&domain.Order{ID: 7, RestaurantID: 10}, nil).Once()

	_, err := d.service().SetDeliveryTime(context.Background(), 7, "2026-03-01 18:30", 30)

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	d.assertExpectations(t)
}

func TestOrderService_EditLines(t *testing.T) {
	pilau := int64(1)
	existing := func(paid bool) *domain.Order {
		return &domain.Order{
			ID: 7, CustomerID: 3, RestaurantID: 10, Paid: paid, TotalPrice: decimal.NewFromInt(500),
			Lines: []domain.OrderLine{{Position: 1, MenuItemID: &pilau, Name: "Pilau", UnitPrice: decimal.NewFromInt(500), Quantity: 1}},
		}
	}

	tests := []struct {
		name      string
		order     *domain.Order
		lines     []domain.LineRequest
		setupMock func(d orderDeps)
		wantKind  apperr.Kind
		wantTotal string
	}{
		{
			name:  "re-prices the new line set",
			order: existing(false),
			lines: []domain.LineRequest{{MenuItemID: 2, Quantity: 3}},
			setupMock: func(d orderDeps) {
				d.pending.On("Pending", mock.Anything, int64(7)).Return(false, nil).Once()
				d.items.On("GetItems", mock.Anything, []int64{2}).Return(catalogFixture(), nil).Once()
				d.orders.On("ReplaceLines", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				d.pub.On("Publish", mock.Anything, mock.MatchedBy(func(m events.Message) bool {
					return m.Type == events.TypeOrderUpdated &&
						len(m.PreviousLines) == 1 && m.PreviousLines[0].MenuItemID == 1 &&
						len(m.Lines) == 1 && m.Lines[0].MenuItemID == 2 && m.Lines[0].Quantity == 3
				})).Return(nil).Once()
			},
			wantTotal: "900",
		},
		{
			name:      "paid order is frozen",
			order:     existing(true),
			lines:     []domain.LineRequest{{MenuItemID: 2, Quantity: 1}},
			setupMock: func(d orderDeps) {},
			wantKind:  apperr.KindConflict,
		},
		{
			name:  "payment request in flight",
			order: existing(false),
			lines: []domain.LineRequest{{MenuItemID: 2, Quantity: 1}},
			setupMock: func(d orderDeps) {
				d.pending.On("Pending", mock.Anything, int64(7)).Return(true, nil).Once()
			},
			wantKind: apperr.KindConflict,
		},
		{
			name:  "storage reports a concurrent payment",
			order: existing(false),
			lines: []domain.LineRequest{{MenuItemID: 2, Quantity: 1}},
			setupMock: func(d orderDeps) {
				d.pending.On("Pending", mock.Anything, int64(7)).Return(false, nil).Once()
				d.items.On("GetItems", mock.Anything, []int64{2}).Return(catalogFixture(), nil).Once()
				d.orders.On("ReplaceLines", mock.Anything, mock.Anything).Return(apperr.Conflict("order 7 is already paid")).Once()
			},
			wantKind: apperr.KindConflict,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("GetOrder", mock.Anything, int64(7)).Return(testCase.order, nil).Once()
			testCase.setupMock(d)

			order, err := d.service().EditLines(context.Background(), 7, testCase.lines, 3)

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, testCase.wantTotal, order.TotalPrice.String())
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		principal session.Principal
		wantKind  apperr.Kind
	}{
		{name: "owning customer", principal: session.Principal{ActorID: 3, Role: session.RoleCustomer}},
		{name: "owning restaurant", principal: session.Principal{ActorID: 10, Role: session.RoleRestaurant}},
		{name: "stranger", principal: session.Principal{ActorID: 4, Role: session.RoleCustomer}, wantKind: apperr.KindNotFound},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			d := newOrderDeps()
			d.orders.On("GetOrder", mock.Anything, int64(7)).Return(&domain.Order{ID: 7, CustomerID: 3, RestaurantID: 10}, nil).Once()
			if testCase.wantKind == "" {
				d.orders.On("DeleteOrder", mock.Anything, int64(7)).Return(nil).Once()
				d.pub.On("Publish", mock.Anything, eventOfType(events.TypeOrderDeleted)).Return(nil).Once()
			}

			err := d.service().Delete(context.Background(), testCase.principal, 7)

			if testCase.wantKind != "" {
				assert.Equal(t, testCase.wantKind, apperr.KindOf(err))
			} else {
				assert.NoError(t, err)
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_PublishFailureDoesNotFailCreate(t *testing.T) {
	d := newOrderDeps()
	d.accounts.On("GetAccount", mock.Anything, session.RoleRestaurant, int64(10)).Return(restaurantAccount(10), nil).Once()
	d.items.On("GetItems", mock.Anything, []int64{1}).Return(catalogFixture(), nil).Once()
	d.orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil).Once()
	d.pub.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	order, err := d.service().Create(context.Background(), 3, domain.OrderInput{
		RestaurantID: 10, DeliveryAddress: "Moi Avenue", Lines: []domain.LineRequest{{MenuItemID: 1, Quantity: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, "500", order.TotalPrice.String())
	d.assertExpectations(t)
}

func TestOrderService_QRCode(t *testing.T) {
	d := newOrderDeps()
	d.orders.On("GetOrder", mock.Anything, int64(7)).Return(&domain.Order{ID: 7, CustomerID: 3, RestaurantID: 10}, nil).Once()
	d.qr.On("Generate", "https://quickbite.test/orders/7/review").Return([]byte("png"), nil).Once()

	png, err := d.service().QRCode(context.Background(), session.Principal{ActorID: 3, Role: session.RoleCustomer}, 7)

	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)
	d.assertExpectations(t)
}

func TestPNGQRGenerator_Generate(t *testing.T) {
	png, err := service.PNGQRGenerator{Size: 128}.Generate("https://quickbite.test/orders/7/review")

	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
