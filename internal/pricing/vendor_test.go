package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionByVendorPreservesOrder(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{ProductID: "a", VendorID: "v1", Qty: 1, LineTotal: 100},
		{ProductID: "b", VendorID: "v2", Qty: 1, LineTotal: 200},
		{ProductID: "c", VendorID: "v1", Qty: 1, LineTotal: 300},
	}
	parts := PartitionByVendor(lines)
	require.Len(t, parts, 2)
	require.Equal(t, "v1", parts[0].VendorID)
	require.Equal(t, "v2", parts[1].VendorID)
	require.Len(t, parts[0].Lines, 2)
	require.Equal(t, "a", parts[0].Lines[0].ProductID)
	require.Equal(t, "c", parts[0].Lines[1].ProductID)
}

func TestPartitionDeliveryCheckedPerVendor(t *testing.T) {
	t.Parallel()

	sched := checkoutSchedule()
	// Vendor v1 clears the free delivery minimum on its own; v2 does not,
	// even though the combined cart would.
	lines := []Line{
		{ProductID: "a", VendorID: "v1", Qty: 1, ListUnitPrice: 25000, UnitPrice: 25000, LineTotal: 25000},
		{ProductID: "b", VendorID: "v2", Qty: 1, ListUnitPrice: 15000, UnitPrice: 15000, LineTotal: 15000},
	}
	parts := PartitionByVendor(lines)
	require.Len(t, parts, 2)

	first := Summarize(parts[0].Lines, sched)
	second := Summarize(parts[1].Lines, sched)
	require.Equal(t, Money(0), first.DeliveryCharge)
	require.Equal(t, Money(7500), second.DeliveryCharge)

	combined := Summarize(lines, sched)
	require.Equal(t, combined.Subtotal, first.Subtotal+second.Subtotal)
	require.Equal(t, Money(0), combined.DeliveryCharge)
}
