package adjudication

import "github.com/shopspring/decimal"

// All monetary amounts are integer Rials. roundRial is the single rounding
// rule of the engine (half-to-even); every intermediate allocation goes
// through it so recomputation stays bit-identical across call sites.
func roundRial(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(0)
}

func decimalMin(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func decimalMax(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
