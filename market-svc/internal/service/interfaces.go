package service

import (
	"context"
	"io"
	"time"

	"quickbite/market-svc/internal/domain"
	"quickbite/market-svc/internal/mpesa"
	"quickbite/pkg/events"
	"quickbite/pkg/session"
)

type AccountRepository interface {
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, role session.Role, id int64) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, role session.Role, email string) (*domain.Account, error)
	ListAccounts(ctx context.Context, role session.Role) ([]domain.Account, error)
	ListAgents(ctx context.Context, restaurantID int64) ([]domain.Account, error)
	UpdateProfile(ctx context.Context, role session.Role, id int64, patch domain.ProfilePatch) (*domain.Account, error)
	SetAccountImage(ctx context.Context, role session.Role, id int64, url string) error
	DeleteRestaurant(ctx context.Context, id int64) error
	DeleteCustomer(ctx context.Context, id int64) error
	DeleteAgent(ctx context.Context, restaurantID, agentID int64) error
}

type CatalogRepository interface {
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	GetItem(ctx context.Context, id int64) (*domain.MenuItem, error)
	GetItems(ctx context.Context, ids []int64) (map[int64]domain.MenuItem, error)
	ListItems(ctx context.Context, restaurantID int64, onlyAvailable bool) ([]domain.MenuItem, error)
	UpdateItem(ctx context.Context, item *domain.MenuItem) error
	SetItemImage(ctx context.Context, id int64, url string) error
	DeleteItem(ctx context.Context, id int64) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	AssignAgent(ctx context.Context, orderID, agentID int64) error
	SetDeliveryTime(ctx context.Context, orderID int64, at time.Time) error
	ReplaceLines(ctx context.Context, o *domain.Order) error
	DeleteOrder(ctx context.Context, id int64) error
}

type PaymentRepository interface {
	SettleOrder(ctx context.Context, p *domain.Payment, guard domain.SettleGuard) error
	ListPayments(ctx context.Context, f domain.PaymentFilter) ([]domain.Payment, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, rv *domain.Review) (float64, error)
	UpdateReview(ctx context.Context, rv *domain.Review) (float64, error)
	DeleteReview(ctx context.Context, kind domain.ReviewKind, id, customerID int64) (float64, error)
	ListReviews(ctx context.Context, kind domain.ReviewKind, f domain.ReviewFilter) ([]domain.Review, error)
}

type PendingPushes interface {
	Reserve(ctx context.Context, orderID int64) (bool, error)
	Attach(ctx context.Context, orderID int64, checkoutID, reference string) error
	Release(ctx context.Context, orderID int64) error
	Pending(ctx context.Context, orderID int64) (bool, error)
	Lookup(ctx context.Context, checkoutID string) (string, error)
	Clear(ctx context.Context, orderID int64, checkoutID string) error
}

type PaymentGateway interface {
	StkPush(ctx context.Context, in mpesa.PushRequest) (*mpesa.PushResponse, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

type BlobStore interface {
	Put(ctx context.Context, prefix, contentType string, r io.Reader) (string, error)
}

type QRGenerator interface {
	Generate(url string) ([]byte, error)
}

type IdentityServiceInterface interface {
	Authenticate(ctx context.Context, email, password string, role session.Role) (domain.Actor, error)
	Signup(ctx context.Context, in domain.SignupInput) (domain.Actor, error)
	Me(ctx context.Context, p session.Principal) (domain.Actor, error)
	UpdateProfile(ctx context.Context, p session.Principal, patch domain.ProfilePatch) (domain.Actor, error)
	UploadImage(ctx context.Context, p session.Principal, contentType string, r io.Reader) (string, error)
	ProvisionRestaurant(ctx context.Context, in domain.SignupInput) (domain.Actor, error)
	CreateAgent(ctx context.Context, restaurantID int64, in domain.SignupInput) (domain.Actor, error)
	ListAgents(ctx context.Context, restaurantID int64) ([]domain.Actor, error)
	DeleteAgent(ctx context.Context, restaurantID, agentID int64) error
	ListRestaurants(ctx context.Context) ([]domain.Actor, error)
	GetRestaurant(ctx context.Context, id int64) (domain.Actor, error)
	ListCustomers(ctx context.Context) ([]domain.Actor, error)
	DeleteRestaurant(ctx context.Context, id int64) error
	DeleteCustomer(ctx context.Context, id int64) error
}

type CatalogServiceInterface interface {
	CreateItem(ctx context.Context, item *domain.MenuItem) error
	UpdateItem(ctx context.Context, restaurantID, itemID int64, patch domain.MenuItemPatch) (*domain.MenuItem, error)
	DeleteItem(ctx context.Context, restaurantID, itemID int64) error
	UploadItemImage(ctx context.Context, restaurantID, itemID int64, contentType string, r io.Reader) (string, error)
	ListAvailable(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error)
	ListAll(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error)
}

type OrderServiceInterface interface {
	Create(ctx context.Context, customerID int64, in domain.OrderInput) (*domain.Order, error)
	Get(ctx context.Context, p session.Principal, orderID int64) (*domain.Order, error)
	List(ctx context.Context, p session.Principal) ([]domain.Order, error)
	AssignAgent(ctx context.Context, orderID, agentID, restaurantID int64) (*domain.Order, error)
	SetDeliveryTime(ctx context.Context, orderID int64, timestamp string, agentID int64) (*domain.Order, error)
	EditLines(ctx context.Context, orderID int64, lines []domain.LineRequest, customerID int64) (*domain.Order, error)
	Delete(ctx context.Context, p session.Principal, orderID int64) error
	QRCode(ctx context.Context, p session.Principal, orderID int64) ([]byte, error)
}

type PaymentServiceInterface interface {
	Record(ctx context.Context, orderID, customerID int64, in domain.PaymentInput) (*domain.Payment, error)
	InitiatePush(ctx context.Context, orderID, customerID int64, phone string) (*mpesa.PushResponse, error)
	SettleFromCallback(ctx context.Context, cb *mpesa.Callback) (*domain.Payment, error)
	List(ctx context.Context, p session.Principal) ([]domain.Payment, error)
}

type ReviewServiceInterface interface {
	Submit(ctx context.Context, rv *domain.Review) (float64, error)
	Update(ctx context.Context, rv *domain.Review) (float64, error)
	Delete(ctx context.Context, kind domain.ReviewKind, id, customerID int64) (float64, error)
	ListForTarget(ctx context.Context, kind domain.ReviewKind, targetID int64) ([]domain.Review, error)
	ListByCustomer(ctx context.Context, kind domain.ReviewKind, customerID int64) ([]domain.Review, error)
}
