package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Store is the cart persistence the service needs. repo.CartsRepo satisfies it.
type Store interface {
	GetOrCreate(ctx context.Context, customerID string) (repo.Cart, error)
	Items(ctx context.Context, cartID string) ([]repo.CartItem, error)
	UpsertItem(ctx context.Context, cartID, productID string, qty int) error
	SetItemQty(ctx context.Context, cartID, productID string, qty int) error
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

// ProductGetter resolves products for stock checks. repo.ProductsRepo
// satisfies it.
type ProductGetter interface {
	Get(ctx context.Context, id string) (repo.ProductRow, error)
}

// Service encapsulates cart domain operations. Every read reprices the
// cart from the current product snapshots; nothing derived is stored.
type Service struct {
	Carts    Store
	Products ProductGetter
	Schedule pricing.FeeSchedule
}

// LineView is a priced cart row.
type LineView struct {
	ProductID     string        `json:"product_id"`
	VendorID      string        `json:"vendor_id"`
	Name          string        `json:"name"`
	Qty           int           `json:"qty"`
	ListUnitPrice pricing.Money `json:"list_unit_price"`
	UnitPrice     pricing.Money `json:"unit_price"`
	LineTotal     pricing.Money `json:"line_total"`
}

// VendorGroup is a vendor partition of the cart with its own breakdown.
type VendorGroup struct {
	VendorID  string            `json:"vendor_id"`
	Lines     []LineView        `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// View is the customer-facing cart payload.
type View struct {
	CartID    string            `json:"cart_id"`
	Lines     []LineView        `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Vendors   []VendorGroup     `json:"vendors"`
}

// Get returns the customer's cart priced at current catalog data.
func (s *Service) Get(ctx context.Context, customerID string) (View, error) {
	if s == nil || s.Carts == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	return s.view(ctx, cart.ID)
}

// AddItem puts qty units of a product into the cart.
func (s *Service) AddItem(ctx context.Context, customerID, productID string, qty int) (View, error) {
	if s == nil || s.Carts == nil || s.Products == nil {
		return View{}, errors.New("cart service not configured")
	}
	if qty < 1 {
		return View{}, common.ValidationError("qty must be at least 1", nil)
	}
	product, err := s.Products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFoundError("product not found")
		}
		return View{}, fmt.Errorf("get product: %w", err)
	}
	if !product.Active {
		return View{}, common.NotFoundError("product not found")
	}
	cart, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	if err := s.checkStock(ctx, cart.ID, product, qty); err != nil {
		return View{}, err
	}
	if err := s.Carts.UpsertItem(ctx, cart.ID, productID, qty); err != nil {
		return View{}, fmt.Errorf("add item: %w", err)
	}
	return s.view(ctx, cart.ID)
}

// SetQty overwrites the quantity of an existing line. Zero removes it.
func (s *Service) SetQty(ctx context.Context, customerID, productID string, qty int) (View, error) {
	if s == nil || s.Carts == nil {
		return View{}, errors.New("cart service not configured")
	}
	if qty < 0 {
		return View{}, common.ValidationError("qty must not be negative", nil)
	}
	cart, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	if qty == 0 {
		if err := s.Carts.RemoveItem(ctx, cart.ID, productID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return View{}, fmt.Errorf("remove item: %w", err)
		}
		return s.view(ctx, cart.ID)
	}
	product, err := s.Products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFoundError("product not found")
		}
		return View{}, fmt.Errorf("get product: %w", err)
	}
	if qty > product.Stock {
		return View{}, common.ConflictError("INSUFFICIENT_STOCK", "requested quantity exceeds available stock")
	}
	if err := s.Carts.SetItemQty(ctx, cart.ID, productID, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFoundError("cart item not found")
		}
		return View{}, fmt.Errorf("set qty: %w", err)
	}
	return s.view(ctx, cart.ID)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) (View, error) {
	if s == nil || s.Carts == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	if err := s.Carts.RemoveItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return View{}, common.NotFoundError("cart item not found")
		}
		return View{}, fmt.Errorf("remove item: %w", err)
	}
	return s.view(ctx, cart.ID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, customerID string) (View, error) {
	if s == nil || s.Carts == nil {
		return View{}, errors.New("cart service not configured")
	}
	cart, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return View{}, fmt.Errorf("ensure cart: %w", err)
	}
	if err := s.Carts.Clear(ctx, cart.ID); err != nil {
		return View{}, fmt.Errorf("clear cart: %w", err)
	}
	return s.view(ctx, cart.ID)
}

// checkStock validates the combined quantity after an add against stock.
func (s *Service) checkStock(ctx context.Context, cartID string, product repo.ProductRow, addQty int) error {
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	existing := 0
	for _, item := range items {
		if item.ProductID == product.ID {
			existing = item.Qty
			break
		}
	}
	if existing+addQty > product.Stock {
		return common.ConflictError("INSUFFICIENT_STOCK", "requested quantity exceeds available stock")
	}
	return nil
}

func (s *Service) view(ctx context.Context, cartID string) (View, error) {
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return View{}, fmt.Errorf("load items: %w", err)
	}
	entries := make([]pricing.Entry, 0, len(items))
	names := make(map[string]string, len(items))
	for _, item := range items {
		entries = append(entries, pricing.Entry{Product: item.Product.Product, Qty: item.Qty})
		names[item.ProductID] = item.Product.Name
	}
	lines := pricing.PriceLines(entries)
	view := View{
		CartID: cartID,
		Lines:  toLineViews(lines, names),
	}
	// An empty cart has no delivery charge to quote.
	if len(lines) > 0 {
		view.Breakdown = pricing.Summarize(lines, s.Schedule)
	}
	for _, part := range pricing.PartitionByVendor(lines) {
		view.Vendors = append(view.Vendors, VendorGroup{
			VendorID:  part.VendorID,
			Lines:     toLineViews(part.Lines, names),
			Breakdown: pricing.Summarize(part.Lines, s.Schedule),
		})
	}
	return view, nil
}

func toLineViews(lines []pricing.Line, names map[string]string) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineView{
			ProductID:     line.ProductID,
			VendorID:      line.VendorID,
			Name:          names[line.ProductID],
			Qty:           line.Qty,
			ListUnitPrice: line.ListUnitPrice,
			UnitPrice:     line.UnitPrice,
			LineTotal:     line.LineTotal,
		})
	}
	return out
}
