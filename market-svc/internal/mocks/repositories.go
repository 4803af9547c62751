package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/session"
)

type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) CreateAccount(ctx context.Context, a *domain.Account) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AccountRepository) GetAccount(ctx context.Context, role session.Role, id int64) (*domain.Account, error) {
	args := m.Called(ctx, role, id)
	a, _ := args.Get(0).(*domain.Account)
	return a, args.Error(1)
}

func (m *AccountRepository) FindAccountByEmail(ctx context.Context, role session.Role, email string) (*domain.Account, error) {
	args := m.Called(ctx, role, email)
	a, _ := args.Get(0).(*domain.Account)
	return a, args.Error(1)
}

func (m *AccountRepository) ListAccounts(ctx context.Context, role session.Role) ([]domain.Account, error) {
	args := m.Called(ctx, role)
	list, _ := args.Get(0).([]domain.Account)
	return list, args.Error(1)
}

func (m *AccountRepository) ListAgents(ctx context.Context, restaurantID int64) ([]domain.Account, error) {
	args := m.Called(ctx, restaurantID)
	list, _ := args.Get(0).([]domain.Account)
	return list, args.Error(1)
}

func (m *AccountRepository) UpdateProfile(ctx context.Context, role session.Role, id int64, patch domain.ProfilePatch) (*domain.Account, error) {
	args := m.Called(ctx, role, id, patch)
	a, _ := args.Get(0).(*domain.Account)
	return a, args.Error(1)
}

func (m *AccountRepository) SetAccountImage(ctx context.Context, role session.Role, id int64, url string) error {
	args := m.Called(ctx, role, id, url)
	return args.Error(0)
}

func (m *AccountRepository) DeleteRestaurant(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AccountRepository) DeleteCustomer(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AccountRepository) DeleteAgent(ctx context.Context, restaurantID, agentID int64) error {
	args := m.Called(ctx, restaurantID, agentID)
	return args.Error(0)
}

type CatalogRepository struct {
	mock.Mock
}

func (m *CatalogRepository) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CatalogRepository) GetItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.MenuItem)
	return item, args.Error(1)
}

func (m *CatalogRepository) GetItems(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error) {
	args := m.Called(ctx, ids)
	items, _ := args.Get(0).(map[int64]domain.MenuItem)
	return items, args.Error(1)
}

func (m *CatalogRepository) ListItems(ctx context.Context, restaurantID int64, onlyAvailable bool) ([]domain.MenuItem, error) {
	args := m.Called(ctx, restaurantID, onlyAvailable)
	items, _ := args.Get(0).([]domain.MenuItem)
	return items, args.Error(1)
}

func (m *CatalogRepository) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *CatalogRepository) SetItemImage(ctx context.Context, id int64, url string) error {
	args := m.Called(ctx, id, url)
	return args.Error(0)
}

func (m *CatalogRepository) DeleteItem(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type OrderRepository struct {
	mock.Mock
}

func (m *OrderRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *OrderRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*domain.Order)
	return o, args.Error(1)
}

func (m *OrderRepository) ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]domain.Order)
	return list, args.Error(1)
}

func (m *OrderRepository) AssignAgent(ctx context.Context, orderID, agentID int64) error {
	args := m.Called(ctx, orderID, agentID)
	return args.Error(0)
}

func (m *OrderRepository) SetDeliveryTime(ctx context.Context, orderID int64, at time.Time) error {
	args := m.Called(ctx, orderID, at)
	return args.Error(0)
}

func (m *OrderRepository) ReplaceLines(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *OrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type PaymentRepository struct {
	mock.Mock
}

func (m *PaymentRepository) SettleOrder(ctx context.Context, p *domain.Payment, guard domain.SettleGuard) error {
	args := m.Called(ctx, p, guard)
	return args.Error(0)
}

func (m *PaymentRepository) ListPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]domain.Payment)
	return list, args.Error(1)
}

type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) CreateReview(ctx context.Context, rv *domain.Review) (float64, error) {
	args := m.Called(ctx, rv)
	return args.Get(0).(float64), args.Error(1)
}

func (m *ReviewRepository) UpdateReview(ctx context.Context, rv *domain.Review) (float64, error) {
	args := m.Called(ctx, rv)
	return args.Get(0).(float64), args.Error(1)
}

func (m *ReviewRepository) DeleteReview(ctx context.Context, kind domain.ReviewKind, id, customerID int64) (float64, error) {
	args := m.Called(ctx, kind, id, customerID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *ReviewRepository) ListReviews(ctx context.Context, kind domain.ReviewKind, f domain.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, kind, f)
	list, _ := args.Get(0).([]domain.Review)
	return list, args.Error(1)
}
