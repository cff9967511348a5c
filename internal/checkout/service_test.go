package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

type memCarts struct {
	cart      repo.Cart
	items     []repo.CartItem
	removeErr error
}

func (m *memCarts) GetOrCreate(_ context.Context, customerID string) (repo.Cart, error) {
	if m.cart.ID == "" {
		m.cart = repo.Cart{ID: uuid.NewString(), CustomerID: customerID}
	}
	return m.cart, nil
}

func (m *memCarts) Items(_ context.Context, _ string) ([]repo.CartItem, error) {
	out := make([]repo.CartItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memCarts) RemoveItem(_ context.Context, _ string, productID string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	for i, item := range m.items {
		if item.ProductID == productID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m *memCarts) Clear(_ context.Context, _ string) error {
	m.items = nil
	return nil
}

// fakeSubmitter records submitted orders and fails for one vendor.
type fakeSubmitter struct {
	failVendor string
	failErr    error
	submitted  []repo.NewOrderParams
}

func (f *fakeSubmitter) Submit(_ context.Context, p repo.NewOrderParams) (string, error) {
	if p.VendorID == f.failVendor {
		return "", f.failErr
	}
	f.submitted = append(f.submitted, p)
	return uuid.NewString(), nil
}

type memEventStore struct {
	appended []events.Event
}

func (m *memEventStore) AppendEvent(_ context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	evt := events.Event{ID: int64(len(m.appended) + 1), Topic: topic, AggregateID: aggregateID, Payload: payload, OccurredAt: time.Now()}
	m.appended = append(m.appended, evt)
	return evt, nil
}

func cartItem(vendorID string, base int64, qty int) repo.CartItem {
	id := uuid.NewString()
	return repo.CartItem{
		ID:        uuid.NewString(),
		ProductID: id,
		Qty:       qty,
		Product: repo.ProductRow{
			Product: pricing.Product{
				ID:        id,
				VendorID:  vendorID,
				BasePrice: pricing.Money(base),
				Stock:     1000,
			},
			Name:   "item",
			Active: true,
		},
	}
}

func testSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{DeliveryFlat: 7500, FreeDeliveryMin: 20000, PlatformFeeBps: 300, GSTBps: 500}
}

func newTestService(carts *memCarts, orders Submitter) (*Service, *memEventStore) {
	store := &memEventStore{}
	return &Service{
		Carts:    carts,
		Orders:   orders,
		Events:   &events.Bus{Store: store},
		Schedule: testSchedule(),
		Currency: "INR",
	}, store
}

func TestCreatePlacesOrderPerVendor(t *testing.T) {
	v1, v2 := uuid.NewString(), uuid.NewString()
	carts := &memCarts{items: []repo.CartItem{
		cartItem(v1, 12500, 2), // 25000, free delivery
		cartItem(v2, 5000, 3),  // 15000, pays delivery
	}}
	submitter := &fakeSubmitter{}
	svc, store := newTestService(carts, submitter)

	result, err := svc.Create(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, result.Failed)
	require.NotEmpty(t, result.CheckoutID)
	require.Len(t, result.Orders, 2)

	require.Equal(t, v1, result.Orders[0].VendorID)
	require.Equal(t, pricing.Money(0), result.Orders[0].Breakdown.DeliveryCharge)
	require.Equal(t, v2, result.Orders[1].VendorID)
	require.Equal(t, pricing.Money(7500), result.Orders[1].Breakdown.DeliveryCharge)

	require.Len(t, submitter.submitted, 2)
	for _, p := range submitter.submitted {
		require.Equal(t, result.CheckoutID, p.CheckoutID)
		require.Equal(t, "INR", p.Currency)
	}
	require.Empty(t, carts.items, "cart should be emptied after a full checkout")
	require.Len(t, store.appended, 2)
	require.Equal(t, events.TopicOrderCreated, store.appended[0].Topic)
}

func TestCreatePartialFailureKeepsEarlierOrders(t *testing.T) {
	v1, v2, v3 := uuid.NewString(), uuid.NewString(), uuid.NewString()
	carts := &memCarts{items: []repo.CartItem{
		cartItem(v1, 10000, 1),
		cartItem(v2, 10000, 1),
		cartItem(v3, 10000, 1),
	}}
	submitter := &fakeSubmitter{failVendor: v2, failErr: repo.ErrInsufficientStock}
	svc, store := newTestService(carts, submitter)

	result, err := svc.Create(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.NotNil(t, result.Failed)
	require.Equal(t, v2, result.Failed.VendorID)
	require.Equal(t, "INSUFFICIENT_STOCK", result.Failed.Code)

	// Vendor one was placed and stays placed; vendor three was never tried.
	require.Len(t, result.Orders, 1)
	require.Equal(t, v1, result.Orders[0].VendorID)
	require.Len(t, submitter.submitted, 1)

	// Only the placed vendor's line left the cart.
	require.Len(t, carts.items, 2)
	require.Equal(t, v2, carts.items[0].Product.VendorID)
	require.Equal(t, v3, carts.items[1].Product.VendorID)
	require.Len(t, store.appended, 2)
	require.Equal(t, events.TopicOrderCreated, store.appended[0].Topic)
	require.Equal(t, events.TopicOrderPlacementFailed, store.appended[1].Topic)
}

func TestCreateWarnsWhenPlacedLineStaysInCart(t *testing.T) {
	carts := &memCarts{
		items:     []repo.CartItem{cartItem(uuid.NewString(), 12500, 2)},
		removeErr: errors.New("connection reset"),
	}
	submitter := &fakeSubmitter{}
	svc, _ := newTestService(carts, submitter)

	var logs bytes.Buffer
	svc.Log = zerolog.New(&logs)

	result, err := svc.Create(context.Background(), uuid.NewString())
	require.NoError(t, err, "removal failure must not fail the checkout")
	require.Nil(t, result.Failed)
	require.Len(t, result.Orders, 1)
	require.Len(t, carts.items, 1, "line stays in cart when removal fails")

	require.Contains(t, logs.String(), `"level":"warn"`)
	require.Contains(t, logs.String(), "placed line not removed from cart")
	require.Contains(t, logs.String(), carts.items[0].ProductID)
}

func TestCreateEmptyCart(t *testing.T) {
	svc, _ := newTestService(&memCarts{}, &fakeSubmitter{})

	_, err := svc.Create(context.Background(), uuid.NewString())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 422, appErr.HTTPStatus)
}

func TestCreateInactiveProduct(t *testing.T) {
	item := cartItem(uuid.NewString(), 10000, 1)
	item.Product.Active = false
	carts := &memCarts{items: []repo.CartItem{item}}
	submitter := &fakeSubmitter{}
	svc, _ := newTestService(carts, submitter)

	_, err := svc.Create(context.Background(), uuid.NewString())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "PRODUCT_INACTIVE", appErr.Code)
	require.Empty(t, submitter.submitted)
}

func TestCreateEventPayload(t *testing.T) {
	v1 := uuid.NewString()
	customerID := uuid.NewString()
	carts := &memCarts{items: []repo.CartItem{cartItem(v1, 10000, 1)}}
	svc, store := newTestService(carts, &fakeSubmitter{})

	result, err := svc.Create(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, store.appended, 1)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.appended[0].Payload, &payload))
	require.Equal(t, result.Orders[0].OrderID, payload["order_id"])
	require.Equal(t, result.CheckoutID, payload["checkout_id"])
	require.Equal(t, customerID, payload["customer_id"])
	require.Equal(t, v1, payload["vendor_id"])
}

func TestCreateFailureWrapsAppError(t *testing.T) {
	v1 := uuid.NewString()
	carts := &memCarts{items: []repo.CartItem{cartItem(v1, 10000, 1)}}
	submitter := &fakeSubmitter{failVendor: v1, failErr: errors.New("connection reset")}
	svc, _ := newTestService(carts, submitter)

	result, err := svc.Create(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.NotNil(t, result.Failed)
	require.Equal(t, "ORDER_FAILED", result.Failed.Code)
}
