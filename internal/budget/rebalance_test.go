package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starcontent/adpulse/internal/contracts"
)

func TestRebalanceStyles(t *testing.T) {
	t.Run("weighted split sums exactly to total", func(t *testing.T) {
		total := decimal.NewFromInt(10000)
		buckets := RebalanceStyles(total, map[contracts.ContentStyle]float64{
			contracts.StyleSale:   0.5,
			contracts.StyleReview: 0.3,
			contracts.StyleOther:  0.2,
		})

		assert.True(t, decimal.NewFromInt(5000).Equal(buckets[contracts.StyleSale]))
		assert.True(t, decimal.NewFromInt(3000).Equal(buckets[contracts.StyleReview]))
		assert.True(t, decimal.NewFromInt(2000).Equal(buckets[contracts.StyleOther]))
	})

	t.Run("rounding residue lands in the heaviest bucket", func(t *testing.T) {
		// 100 / 3 leaves a cent behind
		total := decimal.NewFromInt(100)
		buckets := RebalanceStyles(total, map[contracts.ContentStyle]float64{
			contracts.StyleSale:   0.34,
			contracts.StyleReview: 0.33,
			contracts.StyleOther:  0.33,
		})

		sum := decimal.Zero
		for _, v := range buckets {
			sum = sum.Add(v)
		}
		require.True(t, total.Equal(sum), "buckets must sum to total, got %s", sum)
		assert.True(t, buckets[contracts.StyleSale].GreaterThanOrEqual(buckets[contracts.StyleReview]))
	})

	t.Run("residue placement is deterministic on weight ties", func(t *testing.T) {
		total := decimal.NewFromFloat(100.01)
		weights := map[contracts.ContentStyle]float64{
			contracts.StyleSale:   0.5,
			contracts.StyleReview: 0.5,
		}

		first := RebalanceStyles(total, weights)
		for i := 0; i < 20; i++ {
			again := RebalanceStyles(total, weights)
			for style, v := range first {
				assert.True(t, v.Equal(again[style]), "style %s drifted", style)
			}
		}
	})

	t.Run("empty weights yield no buckets", func(t *testing.T) {
		buckets := RebalanceStyles(decimal.NewFromInt(100), nil)
		assert.Empty(t, buckets)
	})
}
