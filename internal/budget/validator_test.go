package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starcontent/adpulse/internal/contracts"
)

func validPlan() *contracts.BudgetPlan {
	return &contracts.BudgetPlan{
		ID:          1,
		Name:        "spring-campaign",
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		TotalBudget: decimal.NewFromInt(300000),
		Mode:        contracts.ModeSingleItem,
		Active:      true,
	}
}

func TestValidatePlan(t *testing.T) {
	t.Run("valid plan passes", func(t *testing.T) {
		assert.NoError(t, ValidatePlan(validPlan()))
	})

	t.Run("non-positive budget rejected", func(t *testing.T) {
		plan := validPlan()
		plan.TotalBudget = decimal.Zero
		err := ValidatePlan(plan)
		var verr *contracts.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "total_budget", verr.Field)
	})

	t.Run("inverted period rejected", func(t *testing.T) {
		plan := validPlan()
		plan.EndDate = plan.StartDate.AddDate(0, 0, -1)
		assert.Error(t, ValidatePlan(plan))
	})

	t.Run("platform split must sum to one", func(t *testing.T) {
		plan := validPlan()
		plan.PlatformSplit = map[contracts.Platform]float64{
			contracts.PlatformTikTok:   0.7,
			contracts.PlatformFacebook: 0.2,
		}
		assert.Error(t, ValidatePlan(plan))

		plan.PlatformSplit[contracts.PlatformFacebook] = 0.3
		assert.NoError(t, ValidatePlan(plan))
	})
}

func TestValidateAllocation(t *testing.T) {
	alloc := &contracts.BudgetAllocation{
		ID: 1, PlanID: 1, GroupID: 10,
		AllocatedBudget: decimal.NewFromInt(10000),
		StyleWeights: map[contracts.ContentStyle]float64{
			contracts.StyleSale:  0.8,
			contracts.StyleOther: 0.2,
		},
	}
	assert.NoError(t, ValidateAllocation(alloc))

	t.Run("weights off by more than tolerance rejected", func(t *testing.T) {
		alloc.StyleWeights[contracts.StyleOther] = 0.25
		defer func() { alloc.StyleWeights[contracts.StyleOther] = 0.2 }()
		assert.Error(t, ValidateAllocation(alloc))
	})

	t.Run("negative weight rejected", func(t *testing.T) {
		alloc.StyleWeights[contracts.StyleOther] = -0.2
		defer func() { alloc.StyleWeights[contracts.StyleOther] = 0.2 }()
		assert.Error(t, ValidateAllocation(alloc))
	})

	t.Run("missing weights rejected", func(t *testing.T) {
		bare := &contracts.BudgetAllocation{AllocatedBudget: decimal.NewFromInt(100)}
		assert.Error(t, ValidateAllocation(bare))
	})
}

func TestValidateDailyBudget(t *testing.T) {
	db := &contracts.DailyBudget{
		AllocationID:  1,
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		PlannedBudget: decimal.NewFromInt(10000),
		StyleBudgets: map[contracts.ContentStyle]decimal.Decimal{
			contracts.StyleSale:  decimal.NewFromInt(8000),
			contracts.StyleOther: decimal.NewFromInt(2000),
		},
	}
	assert.NoError(t, ValidateDailyBudget(db))

	t.Run("breakdown must sum to planned budget", func(t *testing.T) {
		db.StyleBudgets[contracts.StyleOther] = decimal.NewFromInt(1999)
		defer func() { db.StyleBudgets[contracts.StyleOther] = decimal.NewFromInt(2000) }()
		assert.Error(t, ValidateDailyBudget(db))
	})

	t.Run("negative style amount rejected", func(t *testing.T) {
		db.StyleBudgets[contracts.StyleOther] = decimal.NewFromInt(-1)
		defer func() { db.StyleBudgets[contracts.StyleOther] = decimal.NewFromInt(2000) }()
		assert.Error(t, ValidateDailyBudget(db))
	})
}

func TestDailyAmount(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// 310000 over 31 days
	daily := DailyAmount(decimal.NewFromInt(310000), start, end)
	assert.True(t, decimal.NewFromInt(10000).Equal(daily), "got %s", daily)

	// single-day plan gets everything
	one := DailyAmount(decimal.NewFromInt(500), start, start)
	assert.True(t, decimal.NewFromInt(500).Equal(one))
}
