package realloc

import (
	"github.com/shopspring/decimal"
)

// distributeBucket splits one style bucket's pool across its candidates
// proportionally to score, cent-exact.
//
// Constraints: every candidate gets at least minBudget and, when the
// bucket has more than one candidate, at most maxShare of the pool.
// Candidates hitting a bound are pinned and the remainder is
// redistributed among the rest. When scores carry no information (all
// zero) or the pool is too small to give everyone the floor, the pool
// is split evenly instead.
//
// Candidates must already be in their fixed order; all tie-breaking and
// residual-cent placement follows that order, so the split is a pure
// function of its inputs.
func distributeBucket(pool decimal.Decimal, cands []*candidate, minBudget decimal.Decimal, maxShare float64) map[int64]decimal.Decimal {
	if len(cands) == 0 || !pool.IsPositive() {
		out := make(map[int64]decimal.Decimal, len(cands))
		for _, c := range cands {
			out[c.targetID] = decimal.Zero
		}
		return out
	}

	n := decimal.NewFromInt(int64(len(cands)))
	if pool.LessThan(minBudget.Mul(n)) || totalScore(cands) == 0 {
		return splitEvenly(pool, cands)
	}

	ceiling := decimal.Zero
	if len(cands) > 1 {
		ceiling = pool.Mul(decimal.NewFromFloat(maxShare)).RoundDown(2)
	}

	out := make(map[int64]decimal.Decimal, len(cands))
	active := make([]*candidate, len(cands))
	copy(active, cands)
	remaining := pool

	// Pin bound violators and recompute until the proportional shares of
	// everyone left fit their bounds. Each pass pins at least one
	// candidate, so this terminates in at most len(cands) passes.
	for len(active) > 0 {
		if remaining.LessThan(minBudget.Mul(decimal.NewFromInt(int64(len(active))))) {
			// Ceiling pins starved the rest of the bucket below the
			// floor; fall back to an even split of what is left
			even := splitEvenly(remaining, active)
			for id, amount := range even {
				out[id] = amount
			}
			return out
		}

		score := totalScore(active)
		if score == 0 {
			even := splitEvenly(remaining, active)
			for id, amount := range even {
				out[id] = amount
			}
			return out
		}

		// Shares within one pass come from a snapshot of the pool, so a
		// pin earlier in the pass cannot shrink the shares judged for
		// the candidates after it
		passPool := remaining
		pinned := false
		kept := active[:0]
		for _, c := range active {
			share := passPool.Mul(decimal.NewFromFloat(c.score / score))
			switch {
			case share.LessThan(minBudget):
				out[c.targetID] = minBudget
				remaining = remaining.Sub(minBudget)
				pinned = true
			case !ceiling.IsZero() && share.GreaterThan(ceiling):
				out[c.targetID] = ceiling
				remaining = remaining.Sub(ceiling)
				pinned = true
			default:
				kept = append(kept, c)
			}
		}
		active = kept

		if !pinned {
			assigned := decimal.Zero
			for _, c := range active {
				amount := remaining.Mul(decimal.NewFromFloat(c.score / score)).RoundDown(2)
				out[c.targetID] = amount
				assigned = assigned.Add(amount)
			}
			// Rounding residue goes to the first candidate in order
			if residue := remaining.Sub(assigned); !residue.IsZero() {
				first := active[0].targetID
				out[first] = out[first].Add(residue)
			}
			return out
		}
	}

	// Everyone hit a bound; park the excess on the first candidate
	if !remaining.IsZero() {
		first := cands[0].targetID
		out[first] = out[first].Add(remaining)
	}
	return out
}

// splitEvenly divides the pool equally, residue to the first in order
func splitEvenly(pool decimal.Decimal, cands []*candidate) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(cands))
	each := pool.Div(decimal.NewFromInt(int64(len(cands)))).RoundDown(2)
	assigned := decimal.Zero
	for _, c := range cands {
		out[c.targetID] = each
		assigned = assigned.Add(each)
	}
	if residue := pool.Sub(assigned); !residue.IsZero() {
		first := cands[0].targetID
		out[first] = out[first].Add(residue)
	}
	return out
}

func totalScore(cands []*candidate) float64 {
	sum := 0.0
	for _, c := range cands {
		sum += c.score
	}
	return sum
}
