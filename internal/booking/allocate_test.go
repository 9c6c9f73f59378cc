package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocate(t *testing.T) {
	tests := []struct {
		name           string
		requestedQty   int
		remaining      int
		unitPriceCents int64
		wantCovered    int
		wantPaid       int
		wantPrice      int64
	}{
		{
			name:           "partial coverage",
			requestedQty:   10,
			remaining:      8,
			unitPriceCents: 20000,
			wantCovered:    8,
			wantPaid:       2,
			wantPrice:      40000,
		},
		{
			name:           "fully covered",
			requestedQty:   5,
			remaining:      5,
			unitPriceCents: 20000,
			wantCovered:    5,
			wantPaid:       0,
			wantPrice:      0,
		},
		{
			name:           "no balance",
			requestedQty:   3,
			remaining:      0,
			unitPriceCents: 30000,
			wantCovered:    0,
			wantPaid:       3,
			wantPrice:      90000,
		},
		{
			name:           "balance exceeds request",
			requestedQty:   2,
			remaining:      10,
			unitPriceCents: 15000,
			wantCovered:    2,
			wantPaid:       0,
			wantPrice:      0,
		},
		{
			name:           "negative remaining treated as zero",
			requestedQty:   4,
			remaining:      -1,
			unitPriceCents: 10000,
			wantCovered:    0,
			wantPaid:       4,
			wantPrice:      40000,
		},
		{
			name:           "free service",
			requestedQty:   6,
			remaining:      1,
			unitPriceCents: 0,
			wantCovered:    1,
			wantPaid:       5,
			wantPrice:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Allocate(tt.requestedQty, tt.remaining, tt.unitPriceCents)

			assert.Equal(t, tt.wantCovered, got.Covered)
			assert.Equal(t, tt.wantPaid, got.Paid)
			assert.Equal(t, tt.wantPrice, got.PriceCents)
			assert.Equal(t, tt.requestedQty, got.Covered+got.Paid)
		})
	}
}

func TestAllocation_Coverage(t *testing.T) {
	assert.Equal(t, "package", Allocation{Covered: 5, Paid: 0}.Coverage())
	assert.Equal(t, "paid", Allocation{Covered: 0, Paid: 3}.Coverage())
	assert.Equal(t, "partial", Allocation{Covered: 8, Paid: 2}.Coverage())
}
