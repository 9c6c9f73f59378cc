package booking

// Allocation is the split of a requested quantity into package-covered and
// paid units. PriceCents charges only the paid portion.
type Allocation struct {
	Covered    int   `json:"covered"`
	Paid       int   `json:"paid"`
	PriceCents int64 `json:"price_cents"`
}

// Allocate splits requestedQty against the remaining package balance.
// Callers with no ledger entry pass remaining = 0, which yields a fully
// paid allocation. The function is pure; the booking transaction calls it
// again under the row lock so a stale read here can never over-spend.
func Allocate(requestedQty, remaining int, unitPriceCents int64) Allocation {
	if remaining < 0 {
		remaining = 0
	}

	covered := requestedQty
	if remaining < covered {
		covered = remaining
	}

	paid := requestedQty - covered

	return Allocation{
		Covered:    covered,
		Paid:       paid,
		PriceCents: int64(paid) * unitPriceCents,
	}
}

// Coverage labels an allocation for metrics and logging.
func (a Allocation) Coverage() string {
	switch {
	case a.Paid == 0:
		return "package"
	case a.Covered == 0:
		return "paid"
	default:
		return "partial"
	}
}
