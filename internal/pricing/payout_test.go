package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPayoutDeductions(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{Qty: 2, UnitPrice: 25000, LineTotal: 50000},
		{Qty: 1, UnitPrice: 50000, LineTotal: 50000},
	}
	got := Payout(lines, PayoutSchedule{PlatformFeeBps: 1500, GSTBps: 1800})
	require.Equal(t, Money(100000), got.Gross)
	require.Equal(t, Money(15000), got.PlatformFee)
	require.Equal(t, Money(2700), got.GST)
	require.Equal(t, Money(82300), got.Net)
}

func TestPayoutEmpty(t *testing.T) {
	t.Parallel()

	got := Payout(nil, PayoutSchedule{PlatformFeeBps: 1500, GSTBps: 1800})
	require.Equal(t, PayoutBreakdown{}, got)
}
