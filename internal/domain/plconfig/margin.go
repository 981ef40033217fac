package plconfig

import (
	"math"
)

// MarginPercent returns the margin of revenue over cost as a percentage
// of revenue, 0 when revenue is zero.
func MarginPercent(revenue, cost float64) float64 {
	if revenue == 0 {
		return 0
	}
	return (revenue - cost) / revenue * 100
}

// PriceForTargetMargin returns the price required to hit targetMarginPct
// given a unit cost: cost / (1 − target/100). A target at or above 100%
// is unreachable and yields +Inf.
func PriceForTargetMargin(cost, targetMarginPct float64) float64 {
	if targetMarginPct >= 100 {
		return math.Inf(1)
	}
	return cost / (1 - targetMarginPct/100)
}

// COGSForTargetMargin returns the maximum unit cost that still hits
// targetMarginPct at the given price: price × (1 − target/100).
func COGSForTargetMargin(price, targetMarginPct float64) float64 {
	return price * (1 - targetMarginPct/100)
}
