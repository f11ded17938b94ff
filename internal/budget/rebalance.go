package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
)

// RebalanceStyles splits a total amount across content styles by weight,
// cent-exact: each bucket is the weighted share rounded down to cents and
// the leftover cents go to the heaviest style (ties by style name) so the
// buckets always sum to exactly total.
func RebalanceStyles(total decimal.Decimal, weights map[contracts.ContentStyle]float64) map[contracts.ContentStyle]decimal.Decimal {
	buckets := make(map[contracts.ContentStyle]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return buckets
	}

	styles := make([]contracts.ContentStyle, 0, len(weights))
	for style := range weights {
		styles = append(styles, style)
	}
	sort.Slice(styles, func(i, j int) bool {
		wi, wj := weights[styles[i]], weights[styles[j]]
		if wi != wj {
			return wi > wj
		}
		return styles[i] < styles[j]
	})

	allocated := decimal.Zero
	for _, style := range styles {
		share := total.Mul(decimal.NewFromFloat(weights[style])).RoundDown(2)
		buckets[style] = share
		allocated = allocated.Add(share)
	}

	// Rounding residue lands in the heaviest bucket
	if residue := total.Sub(allocated); !residue.IsZero() {
		buckets[styles[0]] = buckets[styles[0]].Add(residue)
	}

	return buckets
}
