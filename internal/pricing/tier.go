package pricing

import "sort"

// Money represents a monetary value stored in minor units (paise).
type Money = int64

// Product carries the price schedule and stock for a catalog item.
// Optional tier fields are nil when the vendor has not configured them;
// a half-configured breakpoint (price without minimum units, or the
// reverse) is treated as absent.
type Product struct {
	ID               string
	VendorID         string
	BasePrice        Money
	DiscountedPrice  *Money
	BulkPrice        *Money
	BulkMinUnits     *int
	LargeQtyPrice    *Money
	LargeQtyMinUnits *int
	Stock            int
}

// Tier labels used for display in the volume pricing table.
const (
	TierBase     = "base"
	TierBulk     = "bulk"
	TierLargeQty = "large_qty"
)

// Tier maps a quantity range to a fixed unit price. The top tier has no
// upper bound, signalled by Unbounded rather than a sentinel quantity.
type Tier struct {
	MinQty    int
	MaxQty    int
	Unbounded bool
	UnitPrice Money
	Label     string
	Active    bool
}

// Contains reports whether qty falls inside the tier's quantity range.
func (t Tier) Contains(qty int) bool {
	return qty >= t.MinQty && (t.Unbounded || qty <= t.MaxQty)
}

func (p Product) listPrice() Money {
	if p.DiscountedPrice != nil {
		return *p.DiscountedPrice
	}
	return p.BasePrice
}

func (p Product) bulkBreak() (Money, int, bool) {
	if p.BulkPrice == nil || p.BulkMinUnits == nil || *p.BulkMinUnits <= 0 {
		return 0, 0, false
	}
	return *p.BulkPrice, *p.BulkMinUnits, true
}

func (p Product) largeQtyBreak() (Money, int, bool) {
	if p.LargeQtyPrice == nil || p.LargeQtyMinUnits == nil || *p.LargeQtyMinUnits <= 0 {
		return 0, 0, false
	}
	return *p.LargeQtyPrice, *p.LargeQtyMinUnits, true
}

// Tiers derives the ordered tier table for the product. Breakpoints are
// not required to be ordered in the source data: the large quantity
// breakpoint is always the highest tier, and any tier whose range
// collapses (min past max) is dropped.
func Tiers(p Product) []Tier {
	bulkPrice, bulkMin, hasBulk := p.bulkBreak()
	largePrice, largeMin, hasLarge := p.largeQtyBreak()

	baseMax := 0
	switch {
	case hasBulk && hasLarge:
		baseMax = min(bulkMin, largeMin) - 1
	case hasBulk:
		baseMax = bulkMin - 1
	case hasLarge:
		baseMax = largeMin - 1
	}

	tiers := make([]Tier, 0, 3)
	base := Tier{MinQty: 1, UnitPrice: p.listPrice(), Label: TierBase}
	if !hasBulk && !hasLarge || baseMax < 1 {
		// A breakpoint at quantity 1 would leave the base tier empty;
		// keep it unbounded so every quantity still resolves.
		base.Unbounded = true
	} else {
		base.MaxQty = baseMax
	}
	tiers = append(tiers, base)

	if hasBulk {
		bulk := Tier{MinQty: bulkMin, UnitPrice: bulkPrice, Label: TierBulk}
		if hasLarge {
			bulk.MaxQty = largeMin - 1
		} else {
			bulk.Unbounded = true
		}
		tiers = append(tiers, bulk)
	}
	if hasLarge {
		tiers = append(tiers, Tier{MinQty: largeMin, Unbounded: true, UnitPrice: largePrice, Label: TierLargeQty})
	}

	kept := tiers[:0]
	for _, t := range tiers {
		if !t.Unbounded && t.MinQty > t.MaxQty {
			continue
		}
		kept = append(kept, t)
	}
	tiers = kept

	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinQty < tiers[j].MinQty })
	return tiers
}

// TiersAt returns the tier table with the tier containing qty marked active.
// The active flag is display-only and does not affect price selection.
func TiersAt(p Product, qty int) []Tier {
	tiers := Tiers(p)
	for i := range tiers {
		tiers[i].Active = tiers[i].Contains(qty)
	}
	return tiers
}

// UnitPriceAt resolves the effective unit price for the requested
// quantity: the price of the last tier whose minimum does not exceed
// qty. Quantities at or below zero fall back to the list price. This is
// a pure computation and never fails; stock limits are the caller's
// concern.
func UnitPriceAt(p Product, qty int) Money {
	price := p.listPrice()
	for _, t := range Tiers(p) {
		if t.MinQty <= qty {
			price = t.UnitPrice
		}
	}
	return price
}
