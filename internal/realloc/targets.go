package realloc

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
)

// candidate is one spending target under consideration during a run
type candidate struct {
	kind       contracts.TargetKind
	targetID   int64
	externalID string
	platform   contracts.Platform
	style      contracts.ContentStyle

	score     float64
	ctr       float64
	roas      float64
	frequency float64
	hasSpend  bool

	oldBudget decimal.Decimal
	locked    bool
	createdAt time.Time
}

// collectCandidates loads the allocation's spending targets for the run.
// Single-item mode targets content items; multi-item mode targets ad
// groups. Prior per-target rows supply old budgets and locks.
//
// The second slice carries targets that held budget on a prior run but
// are no longer eligible (paused, expired, deactivated or gone from the
// group). Their rows must be rewritten to zero or the committed
// per-target sum drifts above the daily planned budget. Locked rows of
// ineligible targets stay funded like any other lock.
func (e *Engine) collectCandidates(ctx context.Context, mode contracts.AllocationMode, groupID int64, prior []*contracts.TargetBudget, now time.Time) ([]*candidate, []*candidate, error) {
	priorByKey := make(map[string]*contracts.TargetBudget, len(prior))
	for _, t := range prior {
		priorByKey[targetKey(t.Kind, t.TargetID)] = t
	}

	var cands, dropped []*candidate
	seen := make(map[string]bool, len(prior))

	switch mode {
	case contracts.ModeSingleItem:
		items, err := e.contents.ListByGroup(ctx, groupID)
		if err != nil {
			return nil, nil, fmt.Errorf("list group content: %w", err)
		}
		for _, item := range items {
			c := &candidate{
				kind:       contracts.TargetContent,
				targetID:   item.ID,
				externalID: item.PlatformPostID,
				platform:   item.Platform,
				style:      item.Style,
				score:      item.UnifiedScore,
				hasSpend:   item.TotalSpend().IsPositive(),
				createdAt:  item.CreatedAt,
			}
			if item.TikTokAds != nil {
				c.ctr = item.TikTokAds.CTR()
				c.roas = item.TikTokAds.ROAS
			}
			if item.MetaAds != nil {
				// Meta delivery dominates when both platforms ran ads
				c.ctr = item.MetaAds.CTR()
				c.roas = item.MetaAds.ROAS
				c.frequency = item.MetaAds.Frequency
			}
			applyPrior(c, priorByKey)
			seen[targetKey(c.kind, c.targetID)] = true
			switch {
			case item.IsServable(now):
				cands = append(cands, c)
			case c.locked:
				cands = append(cands, c)
			case c.oldBudget.IsPositive():
				dropped = append(dropped, c)
			}
		}

	case contracts.ModeMultiItem:
		groups, err := e.adGroups.ListAdGroupsByGroup(ctx, groupID)
		if err != nil {
			return nil, nil, fmt.Errorf("list ad groups: %w", err)
		}
		for _, g := range groups {
			c := &candidate{
				kind:       contracts.TargetAdGroup,
				targetID:   g.ID,
				externalID: g.ExternalAdGroupID,
				platform:   g.Platform,
				style:      g.Style,
				score:      g.Score,
				ctr:        g.CTR(),
				roas:       g.ROAS,
				frequency:  g.Frequency,
				hasSpend:   g.Spend.IsPositive(),
				createdAt:  g.CreatedAt,
			}
			applyPrior(c, priorByKey)
			seen[targetKey(c.kind, c.targetID)] = true
			switch {
			case g.Active:
				cands = append(cands, c)
			case c.locked:
				cands = append(cands, c)
			case c.oldBudget.IsPositive():
				dropped = append(dropped, c)
			}
		}

	default:
		return nil, nil, contracts.NewValidationError("mode", "unsupported allocation mode %q", mode)
	}

	// Prior rows whose target vanished from the group entirely
	for _, t := range prior {
		if seen[targetKey(t.Kind, t.TargetID)] {
			continue
		}
		c := &candidate{
			kind:      t.Kind,
			targetID:  t.TargetID,
			style:     t.Style,
			oldBudget: t.PlannedBudget,
			locked:    t.Locked,
		}
		if t.Locked {
			cands = append(cands, c)
		} else if t.PlannedBudget.IsPositive() {
			dropped = append(dropped, c)
		}
	}

	sortCandidates(cands)
	sortCandidates(dropped)
	return cands, dropped, nil
}

func applyPrior(c *candidate, prior map[string]*contracts.TargetBudget) {
	if t, ok := prior[targetKey(c.kind, c.targetID)]; ok {
		c.oldBudget = t.PlannedBudget
		c.locked = t.Locked
	} else {
		c.oldBudget = decimal.Zero
	}
}

func targetKey(kind contracts.TargetKind, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// sortCandidates fixes the iteration order every later step relies on:
// score descending, newest first, then id ascending
func sortCandidates(cands []*candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		if !cands[i].createdAt.Equal(cands[j].createdAt) {
			return cands[i].createdAt.After(cands[j].createdAt)
		}
		return cands[i].targetID < cands[j].targetID
	})
}

// bucketFor maps a candidate style onto the allocation's style mix.
// Styles outside the mix fall into the "other" bucket when it carries
// weight, otherwise into the heaviest bucket.
func bucketFor(style contracts.ContentStyle, weights map[contracts.ContentStyle]float64) contracts.ContentStyle {
	if weights[style] > 0 {
		return style
	}
	if weights[contracts.StyleOther] > 0 {
		return contracts.StyleOther
	}

	var heaviest contracts.ContentStyle
	best := -1.0
	styles := make([]contracts.ContentStyle, 0, len(weights))
	for s := range weights {
		styles = append(styles, s)
	}
	sort.Slice(styles, func(i, j int) bool { return styles[i] < styles[j] })
	for _, s := range styles {
		if weights[s] > best {
			best = weights[s]
			heaviest = s
		}
	}
	return heaviest
}
