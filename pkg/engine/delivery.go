package engine

import "github.com/intelliwatt/intelliwatt/pkg/types"

// deliveryCents computes the TDSP passthrough charges for one billing
// month: the fixed monthly fee plus the volumetric charge over the month's
// usage. A nil snapshot prices both legs at zero; the caller records the
// data-completeness warning.
func deliveryCents(d *types.TdspDelivery, kwh float64) (int64, int64) {
	if d == nil {
		return 0, 0
	}
	return roundCents(d.MonthlyFeeCents), roundCents(d.DeliveryCentsPerKWH * kwh)
}
