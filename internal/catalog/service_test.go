package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

type fakeStore struct {
	products map[string]repo.ProductRow
	order    []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: map[string]repo.ProductRow{}}
}

func (f *fakeStore) add(row repo.ProductRow) {
	f.products[row.ID] = row
	f.order = append(f.order, row.ID)
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]repo.ProductRow, error) {
	var out []repo.ProductRow
	for i := offset; i < len(f.order) && len(out) < limit; i++ {
		row := f.products[f.order[i]]
		if row.Active {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByVendor(_ context.Context, vendorID string, limit, offset int) ([]repo.ProductRow, error) {
	var out []repo.ProductRow
	for _, id := range f.order {
		row := f.products[id]
		if row.VendorID == vendorID {
			out = append(out, row)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (repo.ProductRow, error) {
	row, ok := f.products[id]
	if !ok {
		return repo.ProductRow{}, repo.ErrNotFound
	}
	return row, nil
}

func (f *fakeStore) Create(_ context.Context, in repo.NewProductInput) (string, error) {
	id := uuid.NewString()
	f.add(repo.ProductRow{
		Product: pricing.Product{
			ID:               id,
			VendorID:         in.VendorID,
			BasePrice:        in.BasePrice,
			DiscountedPrice:  in.DiscountedPrice,
			BulkPrice:        in.BulkPrice,
			BulkMinUnits:     in.BulkMinUnits,
			LargeQtyPrice:    in.LargeQtyPrice,
			LargeQtyMinUnits: in.LargeQtyMinUnits,
			Stock:            in.Stock,
		},
		Name:        in.Name,
		Description: in.Description,
		Active:      true,
	})
	return id, nil
}

func (f *fakeStore) Update(_ context.Context, id string, in repo.NewProductInput) error {
	row, ok := f.products[id]
	if !ok || row.VendorID != in.VendorID {
		return repo.ErrNotFound
	}
	row.Name = in.Name
	row.BasePrice = in.BasePrice
	row.DiscountedPrice = in.DiscountedPrice
	row.Stock = in.Stock
	f.products[id] = row
	return nil
}

func money(v int64) *pricing.Money {
	m := pricing.Money(v)
	return &m
}

func units(v int) *int { return &v }

func tieredRow(vendorID string) repo.ProductRow {
	return repo.ProductRow{
		Product: pricing.Product{
			ID:               uuid.NewString(),
			VendorID:         vendorID,
			BasePrice:        10000,
			DiscountedPrice:  money(9000),
			BulkPrice:        money(8000),
			BulkMinUnits:     units(10),
			LargeQtyPrice:    money(7000),
			LargeQtyMinUnits: units(50),
			Stock:            500,
		},
		Name:   "Basmati Rice 1kg",
		Active: true,
	}
}

func newTestService(t *testing.T, store Store) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: store, DefaultLimit: 20, MaxLimit: 100})
	require.NoError(t, err)
	return svc
}

func TestGetProductDetailTierTable(t *testing.T) {
	store := newFakeStore()
	row := tieredRow(uuid.NewString())
	store.add(row)
	svc := newTestService(t, store)

	detail, err := svc.GetProductDetail(context.Background(), row.ID, 10)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(8000), detail.UnitPrice)
	require.Equal(t, pricing.Money(80000), detail.LineTotal)
	require.Len(t, detail.Tiers, 3)

	var active int
	for _, tier := range detail.Tiers {
		if tier.Active {
			active++
			require.Equal(t, pricing.TierBulk, tier.Label)
		}
	}
	require.Equal(t, 1, active)
}

func TestGetProductDetailDefaultsQty(t *testing.T) {
	store := newFakeStore()
	row := tieredRow(uuid.NewString())
	store.add(row)
	svc := newTestService(t, store)

	detail, err := svc.GetProductDetail(context.Background(), row.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 1, detail.Qty)
	require.Equal(t, pricing.Money(9000), detail.UnitPrice)
}

func TestGetProductDetailNotFound(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.GetProductDetail(context.Background(), uuid.NewString(), 1)
	require.Error(t, err)
}

func TestCreateProductRejectsInvertedDiscount(t *testing.T) {
	svc := newTestService(t, newFakeStore())
	_, err := svc.CreateProduct(context.Background(), repo.NewProductInput{
		VendorID:        uuid.NewString(),
		Name:            "Bad Discount",
		BasePrice:       100,
		DiscountedPrice: money(200),
	})
	require.Error(t, err)
}

func TestListProductsSummaries(t *testing.T) {
	store := newFakeStore()
	vendor := uuid.NewString()
	store.add(tieredRow(vendor))
	plain := repo.ProductRow{
		Product: pricing.Product{ID: uuid.NewString(), VendorID: vendor, BasePrice: 5000, Stock: 10},
		Name:    "Plain Flour",
		Active:  true,
	}
	store.add(plain)
	svc := newTestService(t, store)

	result, err := svc.ListProducts(context.Background(), 1, 20)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.True(t, result.Items[0].HasTiers)
	require.Equal(t, pricing.Money(9000), result.Items[0].ListPrice)
	require.False(t, result.Items[1].HasTiers)
	require.Equal(t, pricing.Money(5000), result.Items[1].ListPrice)
}
