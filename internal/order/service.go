package order

import (
	"context"
	"errors"
	"time"

	"github.com/dukaan-labs/backend-dukaan/internal/common"
	"github.com/dukaan-labs/backend-dukaan/internal/events"
	"github.com/dukaan-labs/backend-dukaan/internal/pricing"
	"github.com/dukaan-labs/backend-dukaan/internal/repo"
)

// Store is the order persistence the service needs. repo.OrdersRepo
// satisfies it.
type Store interface {
	Get(ctx context.Context, id string) (repo.Order, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]repo.Order, error)
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]repo.Order, error)
	UpdateStatus(ctx context.Context, id, vendorID, status string) error
	CancelByCustomer(ctx context.Context, id, customerID string) error
	PayoutLines(ctx context.Context, vendorID string, from, to time.Time) ([]pricing.Line, error)
}

// DeliveryStore is the delivery persistence the service needs.
// repo.DeliveriesRepo satisfies it.
type DeliveryStore interface {
	ListUnassigned(ctx context.Context, limit, offset int) ([]repo.Delivery, error)
	ListByCourier(ctx context.Context, courierID string, limit, offset int) ([]repo.Delivery, error)
	Get(ctx context.Context, id string) (repo.Delivery, error)
	Claim(ctx context.Context, id, courierID string) error
	UpdateStatus(ctx context.Context, id, courierID, status string) error
}

// Service covers the post-checkout order lifecycle for all three roles:
// customers cancel, vendors advance fulfilment and read payouts, and
// couriers claim and complete deliveries.
type Service struct {
	Orders     Store
	Deliveries DeliveryStore
	Events     *events.Bus
	Payouts    pricing.PayoutSchedule
}

// PayoutSummary is a vendor's earnings for a settlement window.
type PayoutSummary struct {
	VendorID  string                  `json:"vendor_id"`
	From      time.Time               `json:"from"`
	To        time.Time               `json:"to"`
	LineCount int                     `json:"line_count"`
	Breakdown pricing.PayoutBreakdown `json:"breakdown"`
}

// ListForCustomer returns a page of the customer's orders.
func (s *Service) ListForCustomer(ctx context.Context, customerID string, limit, offset int) ([]repo.Order, error) {
	return s.Orders.ListByCustomer(ctx, customerID, limit, offset)
}

// GetForCustomer returns one of the customer's orders with items.
func (s *Service) GetForCustomer(ctx context.Context, customerID, orderID string) (repo.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return repo.Order{}, notFound(err)
	}
	if o.CustomerID != customerID {
		return repo.Order{}, common.NotFoundError("order not found")
	}
	return o, nil
}

// Cancel cancels a customer's order while it is still only placed.
func (s *Service) Cancel(ctx context.Context, customerID, orderID string) (repo.Order, error) {
	o, err := s.GetForCustomer(ctx, customerID, orderID)
	if err != nil {
		return repo.Order{}, err
	}
	if o.Status != repo.OrderPlaced {
		return repo.Order{}, common.ConflictError("INVALID_STATE", "only placed orders can be cancelled")
	}
	if err := s.Orders.CancelByCustomer(ctx, orderID, customerID); err != nil {
		return repo.Order{}, notFound(err)
	}
	o.Status = repo.OrderCancelled
	s.emit(ctx, events.TopicOrderCancelled, o.ID, map[string]any{
		"order_id":    o.ID,
		"customer_id": o.CustomerID,
		"vendor_id":   o.VendorID,
	})
	return o, nil
}

// ListForVendor returns a page of the vendor's incoming orders.
func (s *Service) ListForVendor(ctx context.Context, vendorID string, limit, offset int) ([]repo.Order, error) {
	return s.Orders.ListByVendor(ctx, vendorID, limit, offset)
}

// GetForVendor returns one of the vendor's orders with items.
func (s *Service) GetForVendor(ctx context.Context, vendorID, orderID string) (repo.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return repo.Order{}, notFound(err)
	}
	if o.VendorID != vendorID {
		return repo.Order{}, common.NotFoundError("order not found")
	}
	return o, nil
}

// SetStatus advances a vendor's order through fulfilment. Transitions
// only move forward; rejection is allowed only before acceptance.
func (s *Service) SetStatus(ctx context.Context, vendorID, orderID, status string) (repo.Order, error) {
	if !vendorTarget(status) {
		return repo.Order{}, common.ValidationError("unsupported status", map[string]string{"status": status})
	}
	o, err := s.GetForVendor(ctx, vendorID, orderID)
	if err != nil {
		return repo.Order{}, err
	}
	if status == repo.OrderRejected {
		if o.Status != repo.OrderPlaced {
			return repo.Order{}, common.ConflictError("INVALID_STATE", "only placed orders can be rejected")
		}
	} else if statusRank(o.Status) < 0 || statusRank(o.Status) >= statusRank(status) {
		return repo.Order{}, common.ConflictError("INVALID_STATE", "cannot transition from "+o.Status+" to "+status)
	}
	if err := s.Orders.UpdateStatus(ctx, orderID, vendorID, status); err != nil {
		return repo.Order{}, notFound(err)
	}
	previous := o.Status
	o.Status = status
	s.emit(ctx, events.TopicOrderStatusChanged, o.ID, map[string]any{
		"order_id":    o.ID,
		"vendor_id":   o.VendorID,
		"customer_id": o.CustomerID,
		"from":        previous,
		"to":          status,
	})
	return o, nil
}

// Payout summarises a vendor's delivered sales for the window, with
// platform commission and GST on that commission deducted.
func (s *Service) Payout(ctx context.Context, vendorID string, from, to time.Time) (PayoutSummary, error) {
	if !to.After(from) {
		return PayoutSummary{}, common.ValidationError("payout window is empty", nil)
	}
	lines, err := s.Orders.PayoutLines(ctx, vendorID, from, to)
	if err != nil {
		return PayoutSummary{}, err
	}
	return PayoutSummary{
		VendorID:  vendorID,
		From:      from,
		To:        to,
		LineCount: len(lines),
		Breakdown: pricing.Payout(lines, s.Payouts),
	}, nil
}

// UnassignedDeliveries lists deliveries any courier may claim.
func (s *Service) UnassignedDeliveries(ctx context.Context, limit, offset int) ([]repo.Delivery, error) {
	return s.Deliveries.ListUnassigned(ctx, limit, offset)
}

// CourierDeliveries lists the courier's own deliveries.
func (s *Service) CourierDeliveries(ctx context.Context, courierID string, limit, offset int) ([]repo.Delivery, error) {
	return s.Deliveries.ListByCourier(ctx, courierID, limit, offset)
}

// ClaimDelivery assigns a pending delivery to the courier. Claims race;
// the first courier wins and later attempts conflict.
func (s *Service) ClaimDelivery(ctx context.Context, courierID, deliveryID string) (repo.Delivery, error) {
	if err := s.Deliveries.Claim(ctx, deliveryID, courierID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			if _, getErr := s.Deliveries.Get(ctx, deliveryID); getErr == nil {
				return repo.Delivery{}, common.ConflictError("ALREADY_CLAIMED", "delivery is already assigned")
			}
			return repo.Delivery{}, common.NotFoundError("delivery not found")
		}
		return repo.Delivery{}, err
	}
	d, err := s.Deliveries.Get(ctx, deliveryID)
	if err != nil {
		return repo.Delivery{}, notFound(err)
	}
	s.emit(ctx, events.TopicDeliveryAssigned, d.ID, map[string]any{
		"delivery_id": d.ID,
		"order_id":    d.OrderID,
		"courier_id":  courierID,
	})
	return d, nil
}

// SetDeliveryStatus moves a courier's delivery to picked_up or
// delivered. Completing the delivery also marks the order delivered.
func (s *Service) SetDeliveryStatus(ctx context.Context, courierID, deliveryID, status string) (repo.Delivery, error) {
	if status != repo.DeliveryPickedUp && status != repo.DeliveryDelivered {
		return repo.Delivery{}, common.ValidationError("unsupported status", map[string]string{"status": status})
	}
	d, err := s.Deliveries.Get(ctx, deliveryID)
	if err != nil {
		return repo.Delivery{}, notFound(err)
	}
	if d.CourierID != courierID {
		return repo.Delivery{}, common.NotFoundError("delivery not found")
	}
	if d.Status == repo.DeliveryDelivered {
		return repo.Delivery{}, common.ConflictError("INVALID_STATE", "delivery is already completed")
	}
	if err := s.Deliveries.UpdateStatus(ctx, deliveryID, courierID, status); err != nil {
		return repo.Delivery{}, notFound(err)
	}
	d.Status = status
	if status == repo.DeliveryDelivered {
		s.completeOrder(ctx, d)
		s.emit(ctx, events.TopicDeliveryDelivered, d.ID, map[string]any{
			"delivery_id": d.ID,
			"order_id":    d.OrderID,
			"courier_id":  courierID,
		})
	}
	return d, nil
}

// completeOrder mirrors a finished delivery onto its order. Failures
// are swallowed: the delivery record is authoritative and the order can
// be repaired out of band.
func (s *Service) completeOrder(ctx context.Context, d repo.Delivery) {
	o, err := s.Orders.Get(ctx, d.OrderID)
	if err != nil {
		return
	}
	if statusRank(o.Status) < 0 || statusRank(o.Status) >= statusRank(repo.OrderDelivered) {
		return
	}
	if err := s.Orders.UpdateStatus(ctx, o.ID, o.VendorID, repo.OrderDelivered); err != nil {
		return
	}
	s.emit(ctx, events.TopicOrderStatusChanged, o.ID, map[string]any{
		"order_id":    o.ID,
		"vendor_id":   o.VendorID,
		"customer_id": o.CustomerID,
		"from":        o.Status,
		"to":          repo.OrderDelivered,
	})
}

func (s *Service) emit(ctx context.Context, topic, aggregateID string, payload map[string]any) {
	if s.Events == nil {
		return
	}
	_, _ = s.Events.Emit(ctx, topic, aggregateID, payload)
}

func vendorTarget(status string) bool {
	switch status {
	case repo.OrderAccepted, repo.OrderShipped, repo.OrderDelivered, repo.OrderRejected:
		return true
	}
	return false
}

func statusRank(status string) int {
	switch status {
	case repo.OrderPlaced:
		return 0
	case repo.OrderAccepted:
		return 1
	case repo.OrderShipped:
		return 2
	case repo.OrderDelivered:
		return 3
	default:
		return -1
	}
}

func notFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return common.NotFoundError("not found")
	}
	return err
}
