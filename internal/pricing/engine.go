package pricing

// Entry pairs a product with the requested quantity, in cart order.
type Entry struct {
	Product Product
	Qty     int
}

// Line is a priced cart entry. ListUnitPrice is the undiscounted base
// price, kept only so savings can be displayed; UnitPrice is the
// tier-resolved price actually charged.
type Line struct {
	ProductID     string
	VendorID      string
	Qty           int
	ListUnitPrice Money
	UnitPrice     Money
	LineTotal     Money
}

// FeeSchedule names the configurable fee constants applied on top of a
// subtotal. Two schedules ship in configuration: the customer checkout
// schedule and the vendor payout schedule. Call sites never carry fee
// literals of their own.
type FeeSchedule struct {
	DeliveryFlat    Money
	FreeDeliveryMin Money
	PlatformFeeBps  int
	GSTBps          int
}

// Breakdown decomposes a cart or vendor partition into its charge
// components. Computed fresh on every read; never persisted as-is.
type Breakdown struct {
	ListSubtotal   Money `json:"list_subtotal"`
	Subtotal       Money `json:"subtotal"`
	Savings        Money `json:"savings"`
	DeliveryCharge Money `json:"delivery_charge"`
	PlatformFee    Money `json:"platform_fee"`
	GST            Money `json:"gst"`
	Total          Money `json:"total"`
}

// PriceLines resolves the effective unit price for every entry and
// returns priced lines in the entries' original order. One resolver
// call per entry; tiers are per product, never per cart.
func PriceLines(entries []Entry) []Line {
	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		if e.Qty <= 0 {
			continue
		}
		unit := UnitPriceAt(e.Product, e.Qty)
		lines = append(lines, Line{
			ProductID:     e.Product.ID,
			VendorID:      e.Product.VendorID,
			Qty:           e.Qty,
			ListUnitPrice: e.Product.BasePrice,
			UnitPrice:     unit,
			LineTotal:     Money(e.Qty) * unit,
		})
	}
	return lines
}

// Summarize folds priced lines into a full cost breakdown under the
// given fee schedule. Delivery is waived once the chargeable subtotal
// reaches the free delivery minimum; the platform fee applies to the
// subtotal and GST applies to subtotal plus platform fee. All math is
// integer minor units with truncating basis-point division.
func Summarize(lines []Line, sched FeeSchedule) Breakdown {
	var listSubtotal, subtotal Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		listSubtotal += l.ListUnitPrice * Money(l.Qty)
		subtotal += l.LineTotal
	}
	savings := listSubtotal - subtotal
	if savings < 0 {
		savings = 0
	}
	delivery := sched.DeliveryFlat
	if subtotal >= sched.FreeDeliveryMin {
		delivery = 0
	}
	platformFee := subtotal * Money(sched.PlatformFeeBps) / 10000
	gst := (subtotal + platformFee) * Money(sched.GSTBps) / 10000
	return Breakdown{
		ListSubtotal:   listSubtotal,
		Subtotal:       subtotal,
		Savings:        savings,
		DeliveryCharge: delivery,
		PlatformFee:    platformFee,
		GST:            gst,
		Total:          subtotal + delivery + platformFee + gst,
	}
}
