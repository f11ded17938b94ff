package realloc

import (
	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
)

// fixedAssignment is a candidate whose budget was decided before
// proportional distribution
type fixedAssignment struct {
	cand   *candidate
	amount decimal.Decimal
	reason contracts.ReasonCode
}

// applyThresholds walks candidates in their fixed order and pins the
// ones that hard rules remove from proportional distribution: low
// unified score, CTR/ROAS below the platform floor, and audience
// fatigue. Returns the pinned assignments and the candidates that go on
// to score-proportional distribution.
func applyThresholds(cands []*candidate, params engineconfig.Reallocation) ([]fixedAssignment, []*candidate) {
	minBudget := params.MinBudget()
	cutAmount := minBudget
	if params.PauseOnThreshold {
		cutAmount = decimal.Zero
	}

	var fixed []fixedAssignment
	var eligible []*candidate

	for _, c := range cands {
		switch {
		case c.score < params.MinScoreFloor:
			// Too weak to keep funding; flagged for human review
			fixed = append(fixed, fixedAssignment{c, cutAmount, contracts.ReasonPauseCandidate})

		case c.hasSpend && belowFloor(c.ctr, params.CTRFloor[string(c.platform)]):
			fixed = append(fixed, fixedAssignment{c, cutAmount, contracts.ReasonThresholdCut})

		case c.hasSpend && belowFloor(c.roas, params.ROASFloor[string(c.platform)]):
			fixed = append(fixed, fixedAssignment{c, cutAmount, contracts.ReasonThresholdCut})

		case c.platform.IsMeta() && params.FrequencyCeiling > 0 && c.frequency > params.FrequencyCeiling:
			// Fatigued Meta audience: cap at a fraction of the prior
			// budget. Frequency from other platforms measures different
			// delivery and never triggers this rule.
			capped := c.oldBudget.Mul(decimal.NewFromFloat(params.FrequencyCutFraction)).RoundDown(2)
			if capped.LessThan(minBudget) {
				capped = minBudget
			}
			fixed = append(fixed, fixedAssignment{c, capped, contracts.ReasonThresholdCut})

		default:
			eligible = append(eligible, c)
		}
	}

	return fixed, eligible
}

// belowFloor reports whether a metric with a configured floor misses it.
// A zero or missing floor disables the rule for that platform.
func belowFloor(value, floor float64) bool {
	return floor > 0 && value < floor
}
