package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Store is the product persistence the catalog needs. repo.ProductsRepo
// satisfies it.
type Store interface {
	List(ctx context.Context, limit, offset int) ([]repo.ProductRow, error)
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]repo.ProductRow, error)
	Get(ctx context.Context, id string) (repo.ProductRow, error)
	Create(ctx context.Context, in repo.NewProductInput) (string, error)
	Update(ctx context.Context, id string, in repo.NewProductInput) error
}

// Service orchestrates catalog queries, pricing presentation, and caching.
type Service struct {
	store        Store
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        Store
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// TierView is one row of the volume pricing table rendered on product pages.
type TierView struct {
	Label     string        `json:"label"`
	MinQty    int           `json:"min_qty"`
	MaxQty    *int          `json:"max_qty,omitempty"`
	UnitPrice pricing.Money `json:"unit_price"`
	Active    bool          `json:"active"`
}

// ProductSummary is a catalog listing entry.
type ProductSummary struct {
	ID        string        `json:"id"`
	VendorID  string        `json:"vendor_id"`
	Name      string        `json:"name"`
	BasePrice pricing.Money `json:"base_price"`
	ListPrice pricing.Money `json:"list_price"`
	Stock     int           `json:"stock"`
	HasTiers  bool          `json:"has_tiers"`
}

// ProductDetail is the full product payload with its tier table priced at
// the requested quantity.
type ProductDetail struct {
	ProductSummary
	Description string        `json:"description"`
	Qty         int           `json:"qty"`
	UnitPrice   pricing.Money `json:"unit_price"`
	LineTotal   pricing.Money `json:"line_total"`
	Tiers       []TierView    `json:"tiers"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductSummary
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ClampLimit normalises a requested page size against the configured bounds.
func (s *Service) ClampLimit(limit int) int {
	if limit < 1 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}

// ListProducts returns a page of active products.
func (s *Service) ListProducts(ctx context.Context, page, limit int) (ProductListResult, error) {
	if page < 1 {
		page = 1
	}
	limit = s.ClampLimit(limit)
	key := fmt.Sprintf("catalog:list:p%d:l%d", page, limit)

	if s.cache != nil {
		var cached []ProductSummary
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return ProductListResult{Items: cached, Page: page, Limit: limit}, nil
		}
	}

	rows, err := s.store.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, summarize(row))
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, items)
	}
	return ProductListResult{Items: items, Page: page, Limit: limit}, nil
}

// ListVendorProducts returns a vendor's own products, including inactive ones.
func (s *Service) ListVendorProducts(ctx context.Context, vendorID string, page, limit int) (ProductListResult, error) {
	if page < 1 {
		page = 1
	}
	limit = s.ClampLimit(limit)
	rows, err := s.store.ListByVendor(ctx, vendorID, limit, (page-1)*limit)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list vendor products: %w", err)
	}
	items := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, summarize(row))
	}
	return ProductListResult{Items: items, Page: page, Limit: limit}, nil
}

// GetProductDetail returns a product with its tier table resolved at qty.
func (s *Service) GetProductDetail(ctx context.Context, id string, qty int) (ProductDetail, error) {
	if strings.TrimSpace(id) == "" {
		return ProductDetail{}, common.ValidationError("product id is required", nil)
	}
	if qty < 1 {
		qty = 1
	}
	row, err := s.getProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	return buildDetail(row, qty), nil
}

func (s *Service) getProduct(ctx context.Context, id string) (repo.ProductRow, error) {
	key := "catalog:product:" + id
	if s.cache != nil {
		var cached repo.ProductRow
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return cached, nil
		}
	}
	row, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.ProductRow{}, &common.AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return repo.ProductRow{}, fmt.Errorf("get product: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, row)
	}
	return row, nil
}

// CreateProduct inserts a vendor's product after tier sanity checks.
func (s *Service) CreateProduct(ctx context.Context, in repo.NewProductInput) (ProductDetail, error) {
	if err := validateInput(in); err != nil {
		return ProductDetail{}, err
	}
	id, err := s.store.Create(ctx, in)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("create product: %w", err)
	}
	return s.GetProductDetail(ctx, id, 1)
}

// UpdateProduct rewrites a vendor's product and drops the stale cache entry.
func (s *Service) UpdateProduct(ctx context.Context, id string, in repo.NewProductInput) (ProductDetail, error) {
	if err := validateInput(in); err != nil {
		return ProductDetail{}, err
	}
	if err := s.store.Update(ctx, id, in); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductDetail{}, common.NotFoundError("product not found")
		}
		return ProductDetail{}, fmt.Errorf("update product: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, "catalog:product:"+id)
	}
	return s.GetProductDetail(ctx, id, 1)
}

// validateInput rejects tier configurations the resolver would have to
// silently discard. Half-configured breakpoints are allowed; they are
// simply ignored at pricing time.
func validateInput(in repo.NewProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return common.ValidationError("name is required", nil)
	}
	if in.BasePrice < 0 {
		return common.ValidationError("base_price must not be negative", nil)
	}
	if in.DiscountedPrice != nil && *in.DiscountedPrice > in.BasePrice {
		return common.ValidationError("discounted_price must not exceed base_price", nil)
	}
	if in.Stock < 0 {
		return common.ValidationError("stock must not be negative", nil)
	}
	return nil
}

func summarize(row repo.ProductRow) ProductSummary {
	return ProductSummary{
		ID:        row.ID,
		VendorID:  row.VendorID,
		Name:      row.Name,
		BasePrice: row.BasePrice,
		ListPrice: pricing.UnitPriceAt(row.Product, 1),
		Stock:     row.Stock,
		HasTiers:  len(pricing.Tiers(row.Product)) > 1,
	}
}

func buildDetail(row repo.ProductRow, qty int) ProductDetail {
	unit := pricing.UnitPriceAt(row.Product, qty)
	tiers := pricing.TiersAt(row.Product, qty)
	views := make([]TierView, 0, len(tiers))
	for _, tier := range tiers {
		view := TierView{
			Label:     tier.Label,
			MinQty:    tier.MinQty,
			UnitPrice: tier.UnitPrice,
			Active:    tier.Active,
		}
		if !tier.Unbounded {
			max := tier.MaxQty
			view.MaxQty = &max
		}
		views = append(views, view)
	}
	return ProductDetail{
		ProductSummary: summarize(row),
		Description:    row.Description,
		Qty:            qty,
		UnitPrice:      unit,
		LineTotal:      unit * pricing.Money(qty),
		Tiers:          views,
	}
}
