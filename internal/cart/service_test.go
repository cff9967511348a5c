package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

type memCarts struct {
	carts    map[string]repo.Cart // customer id -> cart
	items    map[string][]repo.CartItem
	products *memProducts
}

type memProducts struct {
	rows map[string]repo.ProductRow
}

func (m *memProducts) Get(_ context.Context, id string) (repo.ProductRow, error) {
	row, ok := m.rows[id]
	if !ok {
		return repo.ProductRow{}, repo.ErrNotFound
	}
	return row, nil
}

func newMemCarts(products *memProducts) *memCarts {
	return &memCarts{
		carts:    map[string]repo.Cart{},
		items:    map[string][]repo.CartItem{},
		products: products,
	}
}

func (m *memCarts) GetOrCreate(_ context.Context, customerID string) (repo.Cart, error) {
	if cart, ok := m.carts[customerID]; ok {
		return cart, nil
	}
	cart := repo.Cart{ID: uuid.NewString(), CustomerID: customerID}
	m.carts[customerID] = cart
	return cart, nil
}

func (m *memCarts) Items(_ context.Context, cartID string) ([]repo.CartItem, error) {
	items := m.items[cartID]
	out := make([]repo.CartItem, len(items))
	for i, item := range items {
		item.Product = m.products.rows[item.ProductID]
		out[i] = item
	}
	return out, nil
}

func (m *memCarts) UpsertItem(_ context.Context, cartID, productID string, qty int) error {
	for i, item := range m.items[cartID] {
		if item.ProductID == productID {
			m.items[cartID][i].Qty += qty
			return nil
		}
	}
	m.items[cartID] = append(m.items[cartID], repo.CartItem{ID: uuid.NewString(), ProductID: productID, Qty: qty})
	return nil
}

func (m *memCarts) SetItemQty(_ context.Context, cartID, productID string, qty int) error {
	for i, item := range m.items[cartID] {
		if item.ProductID == productID {
			m.items[cartID][i].Qty = qty
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memCarts) RemoveItem(_ context.Context, cartID, productID string) error {
	items := m.items[cartID]
	for i, item := range items {
		if item.ProductID == productID {
			m.items[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memCarts) Clear(_ context.Context, cartID string) error {
	m.items[cartID] = nil
	return nil
}

func money(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func units(v int) *int { return &v }

func testSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{DeliveryFlat: 7500, FreeDeliveryMin: 20000, PlatformFeeBps: 300, GSTBps: 500}
}

func newTestService(products map[string]repo.ProductRow) (*Service, *memCarts) {
	prods := &memProducts{rows: products}
	carts := newMemCarts(prods)
	return &Service{Carts: carts, Products: prods, Schedule: testSchedule()}, carts
}

func product(vendorID string, base int64, stock int) repo.ProductRow {
	return repo.ProductRow{
		Product: pricing.Product{
			ID:        uuid.NewString(),
			VendorID:  vendorID,
			BasePrice: pricing.Money(base),
			Stock:     stock,
		},
		Name:   "Item",
		Active: true,
	}
}

func TestAddItemPricesCart(t *testing.T) {
	vendorID := uuid.NewString()
	p := product(vendorID, 10000, 50)
	p.DiscountedPrice = money(9000)
	p.BulkPrice = money(8000)
	p.BulkMinUnits = units(10)
	svc, _ := newTestService(map[string]repo.ProductRow{p.ID: p})
	customer := uuid.NewString()

	view, err := svc.AddItem(context.Background(), customer, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, pricing.Money(8000), view.Lines[0].UnitPrice)
	require.Equal(t, pricing.Money(80000), view.Breakdown.Subtotal)
	// Savings against list price: (10000-8000)*10.
	require.Equal(t, pricing.Money(20000), view.Breakdown.Savings)
	require.Equal(t, pricing.Money(0), view.Breakdown.DeliveryCharge)
}

func TestAddItemInsufficientStock(t *testing.T) {
	p := product(uuid.NewString(), 10000, 5)
	svc, _ := newTestService(map[string]repo.ProductRow{p.ID: p})
	customer := uuid.NewString()

	_, err := svc.AddItem(context.Background(), customer, p.ID, 3)
	require.NoError(t, err)

	// Combined quantity would exceed stock.
	_, err = svc.AddItem(context.Background(), customer, p.ID, 3)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INSUFFICIENT_STOCK", appErr.Code)
}

func TestSetQtyZeroRemovesLine(t *testing.T) {
	p := product(uuid.NewString(), 10000, 50)
	svc, _ := newTestService(map[string]repo.ProductRow{p.ID: p})
	customer := uuid.NewString()

	_, err := svc.AddItem(context.Background(), customer, p.ID, 2)
	require.NoError(t, err)

	view, err := svc.SetQty(context.Background(), customer, p.ID, 0)
	require.NoError(t, err)
	require.Empty(t, view.Lines)
	require.Equal(t, pricing.Breakdown{}, view.Breakdown)
}

func TestCartPartitionsByVendor(t *testing.T) {
	v1 := uuid.NewString()
	v2 := uuid.NewString()
	p1 := product(v1, 25000, 10)
	p2 := product(v2, 15000, 10)
	svc, _ := newTestService(map[string]repo.ProductRow{p1.ID: p1, p2.ID: p2})
	customer := uuid.NewString()

	_, err := svc.AddItem(context.Background(), customer, p1.ID, 1)
	require.NoError(t, err)
	view, err := svc.AddItem(context.Background(), customer, p2.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Vendors, 2)
	require.Equal(t, v1, view.Vendors[0].VendorID)
	require.Equal(t, pricing.Money(0), view.Vendors[0].Breakdown.DeliveryCharge)
	require.Equal(t, v2, view.Vendors[1].VendorID)
	require.Equal(t, pricing.Money(7500), view.Vendors[1].Breakdown.DeliveryCharge)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newTestService(map[string]repo.ProductRow{})
	_, err := svc.AddItem(context.Background(), uuid.NewString(), uuid.NewString(), 1)
	require.Error(t, err)
}
