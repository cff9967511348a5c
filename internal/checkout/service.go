package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/lock"
	"github.com/dukaan-labs/backend-dukaan/internal/obs"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// CartStore is the cart access checkout needs. repo.CartsRepo satisfies it.
type CartStore interface {
	GetOrCreate(ctx context.Context, customerID string) (repo.Cart, error)
	Items(ctx context.Context, cartID string) ([]repo.CartItem, error)
	RemoveItem(ctx context.Context, cartID, productID string) error
	Clear(ctx context.Context, cartID string) error
}

// Submitter places one vendor order. TxSubmitter is the production
// implementation; tests substitute their own.
type Submitter interface {
	Submit(ctx context.Context, p repo.NewOrderParams) (string, error)
}

// Locker serialises checkouts of the same cart. lock.Locker satisfies it.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// TxSubmitter writes a vendor order, its lines, and the matching stock
// decrements in one transaction. A failed decrement aborts only that
// vendor's order.
type TxSubmitter struct {
	Pool repo.TxBeginner
}

func (s TxSubmitter) Submit(ctx context.Context, p repo.NewOrderParams) (string, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	orderID, err := repo.OrdersRepo{DB: tx}.Create(ctx, p)
	if err != nil {
		return "", err
	}
	products := repo.ProductsRepo{DB: tx}
	for _, item := range p.Items {
		if err := products.DecrementStock(ctx, item.ProductID, item.Qty); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return orderID, nil
}

// PlacedOrder is one successfully submitted vendor order.
type PlacedOrder struct {
	OrderID   string            `json:"order_id"`
	VendorID  string            `json:"vendor_id"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// FailedVendor reports the vendor at which a checkout stopped.
type FailedVendor struct {
	VendorID string `json:"vendor_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// Result is the outcome of a checkout. Orders placed before a failure
// stay placed; Failed is nil only when every vendor succeeded.
type Result struct {
	CheckoutID string        `json:"checkout_id"`
	Orders     []PlacedOrder `json:"orders"`
	Failed     *FailedVendor `json:"failed,omitempty"`
}

// Service turns a customer's cart into one order per vendor. Vendors
// are submitted sequentially in cart order; a failure stops the run
// without rolling back earlier vendors.
type Service struct {
	Carts    CartStore
	Orders   Submitter
	Locks    Locker
	Events   *events.Bus
	Schedule pricing.FeeSchedule
	Currency string
	LockTTL  time.Duration
	Log      zerolog.Logger
}

// Create checks out the customer's cart. Placed lines are removed from
// the cart even when a later vendor fails, so a retry resubmits only
// what is still pending.
func (s *Service) Create(ctx context.Context, customerID string) (Result, error) {
	if s == nil || s.Carts == nil || s.Orders == nil {
		return Result{}, errors.New("checkout service not configured")
	}
	c, err := s.Carts.GetOrCreate(ctx, customerID)
	if err != nil {
		return Result{}, err
	}
	var result Result
	run := func(ctx context.Context) error {
		result, err = s.checkout(ctx, customerID, c.ID)
		return err
	}
	if s.Locks == nil {
		err = run(ctx)
	} else {
		err = s.Locks.WithLock(ctx, "checkout:cart:"+c.ID, s.LockTTL, run)
		if errors.Is(err, lock.ErrNotAcquired) {
			err = common.ConflictError("CHECKOUT_IN_PROGRESS", "another checkout for this cart is in flight")
		}
	}
	return result, err
}

func (s *Service) checkout(ctx context.Context, customerID, cartID string) (Result, error) {
	items, err := s.Carts.Items(ctx, cartID)
	if err != nil {
		return Result{}, err
	}
	if len(items) == 0 {
		return Result{}, common.ValidationError("cart has no items", nil)
	}
	entries := make([]pricing.Entry, 0, len(items))
	names := make(map[string]string, len(items))
	for _, item := range items {
		if !item.Product.Active {
			return Result{}, common.ConflictError("PRODUCT_INACTIVE", "product "+item.Product.ID+" is no longer available")
		}
		entries = append(entries, pricing.Entry{Product: item.Product.Product, Qty: item.Qty})
		names[item.Product.ID] = item.Product.Name
		observeTier(item.Product.Product, item.Qty)
	}
	lines := pricing.PriceLines(entries)
	partitions := pricing.PartitionByVendor(lines)
	if obs.CheckoutVendorCount != nil {
		obs.CheckoutVendorCount.Observe(float64(len(partitions)))
	}

	result := Result{CheckoutID: uuid.NewString(), Orders: make([]PlacedOrder, 0, len(partitions))}
	for _, part := range partitions {
		breakdown := pricing.Summarize(part.Lines, s.Schedule)
		orderID, err := s.Orders.Submit(ctx, repo.NewOrderParams{
			CheckoutID: result.CheckoutID,
			CustomerID: customerID,
			VendorID:   part.VendorID,
			Currency:   s.Currency,
			Breakdown:  breakdown,
			Items:      orderItems(part.Lines, names),
		})
		if err != nil {
			if obs.OrdersPlacedTotal != nil {
				obs.OrdersPlacedTotal.WithLabelValues("error").Inc()
			}
			result.Failed = failure(part.VendorID, err)
			s.emitPlacementFailed(ctx, result.CheckoutID, customerID, result.Failed)
			return result, nil
		}
		if obs.OrdersPlacedTotal != nil {
			obs.OrdersPlacedTotal.WithLabelValues("ok").Inc()
		}
		if breakdown.DeliveryCharge == 0 && obs.FreeDeliveryTotal != nil {
			obs.FreeDeliveryTotal.Inc()
		}
		for _, l := range part.Lines {
			// A line that fails to leave the cart would be ordered
			// again on retry under a fresh checkout id.
			if err := s.Carts.RemoveItem(ctx, cartID, l.ProductID); err != nil {
				s.Log.Warn().Err(err).
					Str("cart_id", cartID).
					Str("product_id", l.ProductID).
					Str("order_id", orderID).
					Msg("placed line not removed from cart")
			}
		}
		result.Orders = append(result.Orders, PlacedOrder{OrderID: orderID, VendorID: part.VendorID, Breakdown: breakdown})
		s.emitOrderCreated(ctx, orderID, result.CheckoutID, customerID, part.VendorID, breakdown.Total)
	}
	return result, nil
}

func (s *Service) emitOrderCreated(ctx context.Context, orderID, checkoutID, customerID, vendorID string, total pricing.Money) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, events.TopicOrderCreated, orderID, map[string]any{
		"order_id":    orderID,
		"checkout_id": checkoutID,
		"customer_id": customerID,
		"vendor_id":   vendorID,
		"total":       total,
	})
}

func (s *Service) emitPlacementFailed(ctx context.Context, checkoutID, customerID string, failed *FailedVendor) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, events.TopicOrderPlacementFailed, checkoutID, map[string]any{
		"checkout_id": checkoutID,
		"customer_id": customerID,
		"vendor_id":   failed.VendorID,
		"code":        failed.Code,
	})
}

func orderItems(lines []pricing.Line, names map[string]string) []repo.NewOrderItem {
	items := make([]repo.NewOrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, repo.NewOrderItem{
			ProductID:     l.ProductID,
			Name:          names[l.ProductID],
			Qty:           l.Qty,
			ListUnitPrice: l.ListUnitPrice,
			UnitPrice:     l.UnitPrice,
			LineTotal:     l.LineTotal,
		})
	}
	return items
}

func observeTier(p pricing.Product, qty int) {
	if obs.TierResolutionTotal == nil {
		return
	}
	for _, t := range pricing.TiersAt(p, qty) {
		if t.Active {
			obs.TierResolutionTotal.WithLabelValues(t.Label).Inc()
		}
	}
}

func failure(vendorID string, err error) *FailedVendor {
	f := &FailedVendor{VendorID: vendorID, Code: "ORDER_FAILED", Message: err.Error()}
	if errors.Is(err, repo.ErrInsufficientStock) {
		f.Code = "INSUFFICIENT_STOCK"
		f.Message = "insufficient stock for one or more items"
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		f.Code = appErr.Code
		f.Message = appErr.Message
	}
	return f
}
