package service

import (
	"context"
	"io"
	"strconv"
	"strings"

	"quickbite/market-svc/internal/domain"
	"quickbite/pkg/apperr"
	"quickbite/pkg/logger"
	"quickbite/pkg/session"
)

type CatalogService struct {
	items    CatalogRepository
	accounts AccountRepository
	blobs    BlobStore
	log      *logger.Logger
}

func NewCatalogService(items CatalogRepository, accounts AccountRepository, blobs BlobStore, log *logger.Logger) *CatalogService {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogService{items: items, accounts: accounts, blobs: blobs, log: log.WithComponent("catalog")}
}

// validateItem normalises name and price before checking them, so a price
// that rounds to zero is rejected.
func validateItem(item *domain.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	item.UnitPrice = item.UnitPrice.Round(2)
	if item.Name == "" {
		return apperr.Validation("name is required")
	}
	if !item.UnitPrice.IsPositive() {
		return apperr.Validation("unit price must be greater than zero")
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	if err := validateItem(item); err != nil {
		return err
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return err
	}
	s.log.Info("menu item created", "restaurant_id", item.RestaurantID, "item_id", item.ID)
	return nil
}

// owned loads the item, reporting NotFound before Forbidden.
func (s *CatalogService) owned(ctx context.Context, restaurantID, itemID int64) (*domain.MenuItem, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.RestaurantID != restaurantID {
		return nil, apperr.Forbidden("menu item %d belongs to another restaurant", itemID)
	}
	return item, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, restaurantID, itemID int64, patch domain.MenuItemPatch) (*domain.MenuItem, error) {
	item, err := s.owned(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}
	patch.Apply(item)
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, restaurantID, itemID int64) error {
	if _, err := s.owned(ctx, restaurantID, itemID); err != nil {
		return err
	}
	if err := s.items.DeleteItem(ctx, itemID); err != nil {
		return err
	}
	s.log.Info("menu item deleted", "restaurant_id", restaurantID, "item_id", itemID)
	return nil
}

func (s *CatalogService) UploadItemImage(ctx context.Context, restaurantID, itemID int64, contentType string, r io.Reader) (string, error) {
	if _, err := s.owned(ctx, restaurantID, itemID); err != nil {
		return "", err
	}
	url, err := s.blobs.Put(ctx, "item-"+strconv.FormatInt(itemID, 10), contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.items.SetItemImage(ctx, itemID, url); err != nil {
		return "", err
	}
	return url, nil
}

// ListAvailable is the customer-facing menu: available items only.
func (s *CatalogService) ListAvailable(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	if _, err := s.accounts.GetAccount(ctx, session.RoleRestaurant, restaurantID); err != nil {
		return nil, err
	}
	return s.items.ListItems(ctx, restaurantID, true)
}

func (s *CatalogService) ListAll(ctx context.Context, restaurantID int64) ([]domain.MenuItem, error) {
	return s.items.ListItems(ctx, restaurantID, false)
}

var _ CatalogServiceInterface = (*CatalogService)(nil)
