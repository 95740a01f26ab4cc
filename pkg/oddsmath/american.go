package oddsmath

import (
	"fmt"
	"math"
	"strings"
)

// PriceFormat identifies how an upstream feed quotes prices
type PriceFormat string

const (
	FormatDecimal  PriceFormat = "decimal"
	FormatAmerican PriceFormat = "american"
)

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -150 → Decimal 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 || (american > -100 && american < 100) {
		return 0, fmt.Errorf("invalid American odds %d: magnitude must be at least 100", american)
	}

	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}

	return 100.0/float64(-american) + 1.0, nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.67 → American -149
func DecimalToAmerican(decimal float64) (int, error) {
	if decimal <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", decimal)
	}

	if decimal >= 2.0 {
		return int(math.Round((decimal - 1.0) * 100.0)), nil
	}

	return int(math.Round(-100.0 / (decimal - 1.0))), nil
}

// ProbabilityToDecimal converts a probability to fair decimal odds
// 0.50 → 2.00
func ProbabilityToDecimal(probability float64) (float64, error) {
	if probability <= 0 || probability > 1 {
		return 0, fmt.Errorf("invalid probability %.4f: must be in (0, 1]", probability)
	}

	return 1.0 / probability, nil
}

// ToDecimal converts a raw feed price to decimal odds
func ToDecimal(price float64, format PriceFormat) (float64, error) {
	switch PriceFormat(strings.ToLower(string(format))) {
	case FormatDecimal, "":
		if price <= 1.0 {
			return 0, fmt.Errorf("invalid decimal odds %.4f: must be > 1.0", price)
		}
		return price, nil
	case FormatAmerican:
		if price != math.Trunc(price) {
			return 0, fmt.Errorf("invalid American odds %.4f: must be an integer", price)
		}
		return AmericanToDecimal(int(price))
	default:
		return 0, fmt.Errorf("unknown price format %q", format)
	}
}
