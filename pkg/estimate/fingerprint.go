package estimate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/intelliwatt/intelliwatt/pkg/types"
	"github.com/intelliwatt/intelliwatt/pkg/usage"
)

// fingerprintInputs are the values that fully determine an estimate. Any
// change to one of them must produce a different fingerprint so stale
// cached results can never satisfy a lookup.
type fingerprintInputs struct {
	EngineVersion string
	Months        int
	TotalKWH      float64
	Delivery      *types.TdspDelivery
	Rate          *types.RateModel
	MonthlyUsage  []usage.Month
}

// fingerprint hashes the inputs into a stable cache key component. Month
// buckets hash in sorted key order and a month without readings encodes as
// "-" so missing stays distinct from an explicit zero.
func fingerprint(in fingerprintInputs) (string, error) {
	rateJSON, err := json.Marshal(in.Rate)
	if err != nil {
		return "", fmt.Errorf("marshaling rate model: %w", err)
	}
	rateSum := sha256.Sum256(rateJSON)

	months := make([]usage.Month, len(in.MonthlyUsage))
	copy(months, in.MonthlyUsage)
	sort.Slice(months, func(i, j int) bool {
		return months[i].Key < months[j].Key
	})
	var buckets strings.Builder
	for _, m := range months {
		if len(m.Agg.ByDay) == 0 && m.Agg.KWHTotal == 0 {
			fmt.Fprintf(&buckets, "%s=-;", m.Key)
			continue
		}
		fmt.Fprintf(&buckets, "%s=%.3f;", m.Key, m.Agg.KWHTotal)
	}
	bucketSum := sha256.Sum256([]byte(buckets.String()))

	delivery := "-"
	if in.Delivery != nil {
		delivery = fmt.Sprintf("%.4f:%.4f:%s",
			in.Delivery.MonthlyFeeCents,
			in.Delivery.DeliveryCentsPerKWH,
			in.Delivery.EffectiveAt.UTC().Format(time.RFC3339))
	}

	canonical := fmt.Sprintf("v=%s|months=%d|kwh=%.3f|tdsp=%s|rate=%s|buckets=%s",
		in.EngineVersion,
		in.Months,
		in.TotalKWH,
		delivery,
		hex.EncodeToString(rateSum[:]),
		hex.EncodeToString(bucketSum[:]))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}
