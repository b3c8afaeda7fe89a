package engine

import "github.com/intelliwatt/intelliwatt/pkg/types"

// creditCents returns the stacked bill credits as zero or negative cents.
// Each credit applies all-or-nothing once usage reaches its threshold, with
// no proration. Credits can only ever lower a bill.
func creditCents(credits []types.BillCredit, kwh float64) int64 {
	var total float64
	for _, c := range credits {
		if kwh >= c.ThresholdKWH {
			total += c.CreditCents
		}
	}
	if total < 0 {
		total = 0
	}
	return -roundCents(total)
}
