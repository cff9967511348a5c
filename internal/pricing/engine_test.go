package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func checkoutSchedule() FeeSchedule {
	return FeeSchedule{
		DeliveryFlat:    7500,
		FreeDeliveryMin: 20000,
		PlatformFeeBps:  300,
		GSTBps:          500,
	}
}

func TestSummarizeComposition(t *testing.T) {
	t.Parallel()

	lines := []Line{{ProductID: "p1", Qty: 1, ListUnitPrice: 50000, UnitPrice: 50000, LineTotal: 50000}}
	got := Summarize(lines, FeeSchedule{DeliveryFlat: 7500, FreeDeliveryMin: 100000, PlatformFeeBps: 300, GSTBps: 500})

	require.Equal(t, Money(50000), got.Subtotal)
	require.Equal(t, Money(7500), got.DeliveryCharge)
	require.Equal(t, Money(1500), got.PlatformFee)
	require.Equal(t, Money(2575), got.GST)
	require.Equal(t, Money(61575), got.Total)
}

func TestFreeDeliveryBoundary(t *testing.T) {
	t.Parallel()

	sched := checkoutSchedule()
	cases := []struct {
		subtotal Money
		want     Money
	}{
		{19999, 7500},
		{20000, 0},
		{20001, 0},
	}
	for _, tc := range cases {
		lines := []Line{{Qty: 1, ListUnitPrice: tc.subtotal, UnitPrice: tc.subtotal, LineTotal: tc.subtotal}}
		got := Summarize(lines, sched)
		require.Equal(t, tc.want, got.DeliveryCharge, "subtotal=%d", tc.subtotal)
	}
}

func TestPriceLinesPreservesOrder(t *testing.T) {
	t.Parallel()

	first := tieredProduct()
	second := Product{ID: "p9", VendorID: "v2", BasePrice: 2000}
	lines := PriceLines([]Entry{
		{Product: first, Qty: 10},
		{Product: second, Qty: 3},
		{Product: first, Qty: 0},
	})

	require.Len(t, lines, 2)
	require.Equal(t, "p1", lines[0].ProductID)
	require.Equal(t, Money(8000), lines[0].UnitPrice)
	require.Equal(t, Money(80000), lines[0].LineTotal)
	require.Equal(t, "p9", lines[1].ProductID)
	require.Equal(t, Money(6000), lines[1].LineTotal)
}

func TestSavingsNeverNegative(t *testing.T) {
	t.Parallel()

	p := tieredProduct()
	for qty := 1; qty <= 100; qty++ {
		lines := PriceLines([]Entry{{Product: p, Qty: qty}})
		got := Summarize(lines, checkoutSchedule())
		require.GreaterOrEqual(t, got.Savings, Money(0), "qty=%d", qty)
		require.Equal(t, got.ListSubtotal-got.Subtotal, got.Savings, "qty=%d", qty)
	}
}

func TestSummarizeEmptyCart(t *testing.T) {
	t.Parallel()

	got := Summarize(nil, checkoutSchedule())
	require.Equal(t, Money(0), got.Subtotal)
	require.Equal(t, Money(7500), got.DeliveryCharge)
}
