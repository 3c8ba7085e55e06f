package temporal

import "math"

// Round rounds half away from zero to the given number of decimal places,
// matching SQL ROUND semantics. This is the single rounding policy for every
// percentage the engine emits.
func Round(x float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(x*scale) / scale
}

// SafeDivide returns num/den, or nil when the denominator is zero.
// Division by zero is the dominant "error" in this domain and is handled by
// value, never by control flow.
func SafeDivide(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	q := num / den
	return &q
}

// SafePct returns round(num/den*100, precision), or nil when the denominator
// is zero. Used for answer rates, win rates, percent-of-peak, and
// period-over-period changes alike.
func SafePct(num, den float64, precision int) *float64 {
	q := SafeDivide(num, den)
	if q == nil {
		return nil
	}
	pct := Round(*q*100, precision)
	return &pct
}
