package tdsp

import (
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// Texas TDSP territory codes. These match the utility code stored on
// houses and rate plans.
const (
	CodeOncor       = "oncor"
	CodeCenterpoint = "centerpoint"
	CodeAEPCentral  = "aep_central"
	CodeAEPNorth    = "aep_north"
	CodeTNMP        = "tnmp"
)

var names = map[string]string{
	CodeOncor:       "Oncor Electric Delivery",
	CodeCenterpoint: "CenterPoint Energy",
	CodeAEPCentral:  "AEP Texas Central",
	CodeAEPNorth:    "AEP Texas North",
	CodeTNMP:        "Texas-New Mexico Power",
}

// defaultRates are the compiled-in delivery snapshots served until the
// reference store has fresher ones. TDSPs file new delivery rates with the
// PUCT around March and September, so each territory carries two dated
// snapshots to keep at-or-before lookups meaningful out of the box.
var defaultRates = map[string][]types.TdspDelivery{
	CodeOncor: {
		{
			UtilityCode:         CodeOncor,
			MonthlyFeeCents:     423,
			DeliveryCentsPerKWH: 4.2839,
			EffectiveAt:         time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			UtilityCode:         CodeOncor,
			MonthlyFeeCents:     423,
			DeliveryCentsPerKWH: 4.8862,
			EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	},
	CodeCenterpoint: {
		{
			UtilityCode:         CodeCenterpoint,
			MonthlyFeeCents:     439,
			DeliveryCentsPerKWH: 4.4525,
			EffectiveAt:         time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			UtilityCode:         CodeCenterpoint,
			MonthlyFeeCents:     439,
			DeliveryCentsPerKWH: 4.9024,
			EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	},
	CodeAEPCentral: {
		{
			UtilityCode:         CodeAEPCentral,
			MonthlyFeeCents:     588,
			DeliveryCentsPerKWH: 4.5734,
			EffectiveAt:         time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			UtilityCode:         CodeAEPCentral,
			MonthlyFeeCents:     588,
			DeliveryCentsPerKWH: 5.0733,
			EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	},
	CodeAEPNorth: {
		{
			UtilityCode:         CodeAEPNorth,
			MonthlyFeeCents:     588,
			DeliveryCentsPerKWH: 4.2236,
			EffectiveAt:         time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			UtilityCode:         CodeAEPNorth,
			MonthlyFeeCents:     588,
			DeliveryCentsPerKWH: 4.7311,
			EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	},
	CodeTNMP: {
		{
			UtilityCode:         CodeTNMP,
			MonthlyFeeCents:     785,
			DeliveryCentsPerKWH: 5.2269,
			EffectiveAt:         time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			UtilityCode:         CodeTNMP,
			MonthlyFeeCents:     785,
			DeliveryCentsPerKWH: 5.8828,
			EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	},
}
