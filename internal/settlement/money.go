package settlement

import (
	"math"

	"github.com/skeebs10/settlr/internal/models"
)

// roundRatio returns amount * num / den rounded to the nearest cent, ties
// away from zero. All inputs are non-negative; arithmetic stays in integers.
func roundRatio(amount models.Cents, num, den int64) models.Cents {
	if den == 0 {
		return 0
	}
	return models.Cents((int64(amount)*num*2 + den) / (den * 2))
}

// percentToBps converts a 0–100 percentage to basis points. The float exists
// only at the API boundary; money math downstream is integer.
func percentToBps(percent float64) int64 {
	return int64(math.Round(percent * 100))
}

// Tax returns the tax owed on a subtotal at the given basis-point rate.
func Tax(subtotal models.Cents, rateBps int64) models.Cents {
	return roundRatio(subtotal, rateBps, 10000)
}
