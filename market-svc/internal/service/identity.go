package service

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

// loginOrder is the order roles are tried in when a login names no role.
var loginOrder = []session.Role{
	session.RoleAdmin,
	session.RoleRestaurant,
	session.RoleCustomer,
	session.RoleAgent,
}

const minPasswordLength = 6

type IdentityService struct {
	accounts AccountRepository
	blobs    BlobStore
	cost     int
	log      *logger.Logger
}

func NewIdentityService(accounts AccountRepository, blobs BlobStore, bcryptCost int, log *logger.Logger) *IdentityService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logger.Nop()
	}
	return &IdentityService{accounts: accounts, blobs: blobs, cost: bcryptCost, log: log.WithComponent("identity")}
}

func (s *IdentityService) Authenticate(ctx context.Context, email, password string, role session.Role) (domain.Actor, error) {
	roles := loginOrder
	if role != "" {
		if !role.Valid() {
			return nil, apperr.Validation("unknown role %q", role)
		}
		roles = []session.Role{role}
	}

	email = normalizeEmail(email)
	for _, candidate := range roles {
		account, err := s.accounts.FindAccountByEmail(ctx, candidate, email)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if actor := account.Actor(); actor.Authenticate(password) {
			return actor, nil
		}
	}
	s.log.Warn("login rejected", "email", email)
	return nil, apperr.Unauthorized("invalid email or password")
}

func (s *IdentityService) Signup(ctx context.Context, in domain.SignupInput) (domain.Actor, error) {
	switch in.Role {
	case session.RoleCustomer, session.RoleRestaurant:
	default:
		return nil, apperr.Validation("signup is open to customers and restaurants only")
	}
	return s.create(ctx, in, nil)
}

func (s *IdentityService) ProvisionRestaurant(ctx context.Context, in domain.SignupInput) (domain.Actor, error) {
	in.Role = session.RoleRestaurant
	return s.create(ctx, in, nil)
}

func (s *IdentityService) CreateAgent(ctx context.Context, restaurantID int64, in domain.SignupInput) (domain.Actor, error) {
	in.Role = session.RoleAgent
	return s.create(ctx, in, func(a *domain.Account) {
		a.RestaurantID = &restaurantID
	})
}

// EnsureAdmin creates the bootstrap admin unless an admin with that email
// already exists. An empty email disables bootstrapping.
func (s *IdentityService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	if email == "" {
		return nil
	}
	_, err := s.accounts.FindAccountByEmail(ctx, session.RoleAdmin, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if name == "" {
		name = "Administrator"
	}
	_, err = s.create(ctx, domain.SignupInput{Role: session.RoleAdmin, Email: email, Password: password, Name: name}, nil)
	return err
}

// normalizeEmail folds addresses to one stored form; accounts are unique per
// role on lower(email).
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(in domain.SignupInput) error {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperr.Validation("invalid email %q", in.Email)
	}
	if len(in.Password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("name is required")
	}
	return nil
}

func (s *IdentityService) create(ctx context.Context, in domain.SignupInput, customize func(*domain.Account)) (domain.Actor, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateSignup(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Identity: domain.Identity{
			Role:         in.Role,
			Email:        in.Email,
			Name:         strings.TrimSpace(in.Name),
			PasswordHash: string(hash),
		},
		Contact: in.Contact,
	}
	switch in.Role {
	case session.RoleRestaurant:
		rating := domain.DefaultRestaurantRating
		account.Rating = &rating
		account.Address = in.Address
		account.Bio = in.Bio
		account.PaybillNumber = in.PaybillNumber
	case session.RoleAgent:
		rating := domain.DefaultAgentRating
		account.Rating = &rating
	}
	if customize != nil {
		customize(account)
	}

	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	s.log.Info("account created", "role", account.Role, "account_id", account.ID)
	return account.Actor(), nil
}

func (s *IdentityService) Me(ctx context.Context, p session.Principal) (domain.Actor, error) {
	account, err := s.accounts.GetAccount(ctx, p.Role, p.ActorID)
	if err != nil {
		return nil, err
	}
	return account.Actor(), nil
}

// UpdateProfile applies only the fields the caller's role owns.
func (s *IdentityService) UpdateProfile(ctx context.Context, p session.Principal, patch domain.ProfilePatch) (domain.Actor, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	allowed := domain.ProfilePatch{Name: patch.Name}
	switch p.Role {
	case session.RoleRestaurant:
		allowed = patch
	case session.RoleCustomer, session.RoleAgent:
		allowed.Contact = patch.Contact
	}

	account, err := s.accounts.UpdateProfile(ctx, p.Role, p.ActorID, allowed)
	if err != nil {
		return nil, err
	}
	return account.Actor(), nil
}

func (s *IdentityService) UploadImage(ctx context.Context, p session.Principal, contentType string, r io.Reader) (string, error) {
	if p.Role == session.RoleAdmin {
		return "", apperr.Validation("admin accounts have no image")
	}
	if _, err := s.accounts.GetAccount(ctx, p.Role, p.ActorID); err != nil {
		return "", err
	}
	url, err := s.blobs.Put(ctx, string(p.Role)+"-"+strconv.FormatInt(p.ActorID, 10), contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.accounts.SetAccountImage(ctx, p.Role, p.ActorID, url); err != nil {
		return "", err
	}
	return url, nil
}

func actors(accounts []domain.Account) []domain.Actor {
	out := make([]domain.Actor, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].Actor())
	}
	return out
}

func (s *IdentityService) ListAgents(ctx context.Context, restaurantID int64) ([]domain.Actor, error) {
	accounts, err := s.accounts.ListAgents(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return actors(accounts), nil
}

func (s *IdentityService) DeleteAgent(ctx context.Context, restaurantID, agentID int64) error {
	if err := s.accounts.DeleteAgent(ctx, restaurantID, agentID); err != nil {
		return err
	}
	s.log.Info("agent deleted", "restaurant_id", restaurantID, "agent_id", agentID)
	return nil
}

func (s *IdentityService) ListRestaurants(ctx context.Context) ([]domain.Actor, error) {
	accounts, err := s.accounts.ListAccounts(ctx, session.RoleRestaurant)
	if err != nil {
		return nil, err
	}
	return actors(accounts), nil
}

func (s *IdentityService) GetRestaurant(ctx context.Context, id int64) (domain.Actor, error) {
	account, err := s.accounts.GetAccount(ctx, session.RoleRestaurant, id)
	if err != nil {
		return nil, err
	}
	return account.Actor(), nil
}

func (s *IdentityService) ListCustomers(ctx context.Context) ([]domain.Actor, error) {
	accounts, err := s.accounts.ListAccounts(ctx, session.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return actors(accounts), nil
}

func (s *IdentityService) DeleteRestaurant(ctx context.Context, id int64) error {
	if err := s.accounts.DeleteRestaurant(ctx, id); err != nil {
		return err
	}
	s.log.Info("restaurant deleted", "restaurant_id", id)
	return nil
}

func (s *IdentityService) DeleteCustomer(ctx context.Context, id int64) error {
	if err := s.accounts.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.log.Info("customer deleted", "customer_id", id)
	return nil
}

var _ IdentityServiceInterface = (*IdentityService)(nil)
