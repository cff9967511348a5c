package pricing

// PayoutSchedule holds the deduction rates applied to a vendor's gross
// sales. These rates are intentionally distinct from the customer
// checkout schedule: the platform commission and GST on that commission
// are levied against the vendor's payout, not the customer's bill.
type PayoutSchedule struct {
	PlatformFeeBps int
	GSTBps         int
}

// PayoutBreakdown is the vendor-facing financial summary for a set of
// order lines.
type PayoutBreakdown struct {
	Gross       Money `json:"gross"`
	PlatformFee Money `json:"platform_fee"`
	GST         Money `json:"gst"`
	Net         Money `json:"net"`
}

// Payout computes the vendor's net payable after platform commission
// and GST deductions.
func Payout(lines []Line, sched PayoutSchedule) PayoutBreakdown {
	var gross Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		gross += l.LineTotal
	}
	fee := gross * Money(sched.PlatformFeeBps) / 10000
	gst := fee * Money(sched.GSTBps) / 10000
	net := gross - fee - gst
	if net < 0 {
		net = 0
	}
	return PayoutBreakdown{Gross: gross, PlatformFee: fee, GST: gst, Net: net}
}
