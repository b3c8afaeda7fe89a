package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/meter"
	"github.com/intelliwatt/intelliwatt/pkg/storage"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// fixtureFile is the seed schema. It mirrors the stored types but carries
// its own yaml tags so the domain types stay yaml-free.
type fixtureFile struct {
	Houses    []fixtureHouse    `yaml:"houses"`
	Plans     []fixturePlan     `yaml:"plans"`
	TdspRates []fixtureTdspRate `yaml:"tdspRates"`
}

type fixtureHouse struct {
	ID          string `yaml:"id"`
	UtilityCode string `yaml:"utilityCode"`
	UsageSource string `yaml:"usageSource"`
	BillEndDay  int    `yaml:"billEndDay"`
	// DailyKWH scales the synthetic meter readings written for smt houses.
	DailyKWH float64 `yaml:"dailyKwh"`
	// AnnualKWH is stored as a manual entry for manual houses.
	AnnualKWH float64 `yaml:"annualKwh"`
}

type fixturePlan struct {
	ID                    string          `yaml:"id"`
	Name                  string          `yaml:"name"`
	Provider              string          `yaml:"provider"`
	UtilityCode           string          `yaml:"utilityCode"`
	Kind                  string          `yaml:"kind"`
	BaseFeeCents          float64         `yaml:"baseFeeCents"`
	MinUsageFeeCents      float64         `yaml:"minUsageFeeCents"`
	TermMonths            int             `yaml:"termMonths"`
	Tiers                 []fixtureTier   `yaml:"tiers"`
	Credits               []fixtureCredit `yaml:"credits"`
	PeakStartHour         *int            `yaml:"peakStartHour"`
	PeakEndHour           *int            `yaml:"peakEndHour"`
	ComputabilityOverride bool            `yaml:"computabilityOverride"`
}

type fixtureTier struct {
	FromKWH   float64  `yaml:"fromKwh"`
	ToKWH     *float64 `yaml:"toKwh"`
	RateCents float64  `yaml:"rateCents"`
}

type fixtureCredit struct {
	ThresholdKWH float64 `yaml:"thresholdKwh"`
	CreditCents  float64 `yaml:"creditCents"`
}

type fixtureTdspRate struct {
	UtilityCode         string    `yaml:"utilityCode"`
	MonthlyFeeCents     float64   `yaml:"monthlyFeeCents"`
	DeliveryCentsPerKWH float64   `yaml:"deliveryCentsPerKwh"`
	EffectiveAt         time.Time `yaml:"effectiveAt"`
}

func (p fixturePlan) ratePlan() types.RatePlan {
	rate := &types.RateModel{
		Kind:             types.RateKind(p.Kind),
		BaseFeeCents:     p.BaseFeeCents,
		MinUsageFeeCents: p.MinUsageFeeCents,
		TermMonths:       p.TermMonths,
	}
	for _, t := range p.Tiers {
		rate.EnergyCharges = append(rate.EnergyCharges, types.EnergyChargeTier{
			FromKWH:   t.FromKWH,
			ToKWH:     t.ToKWH,
			RateCents: t.RateCents,
		})
	}
	for _, c := range p.Credits {
		rate.BillCredits = append(rate.BillCredits, types.BillCredit{
			ThresholdKWH: c.ThresholdKWH,
			CreditCents:  c.CreditCents,
		})
	}
	if p.PeakStartHour != nil && p.PeakEndHour != nil {
		rate.PeakWindow = &types.TouWindow{
			StartHour: *p.PeakStartHour,
			EndHour:   *p.PeakEndHour,
		}
	}
	return types.RatePlan{
		ID:                    p.ID,
		Name:                  p.Name,
		Provider:              p.Provider,
		UtilityCode:           p.UtilityCode,
		Rate:                  rate,
		ComputabilityOverride: p.ComputabilityOverride,
		UpdatedAt:             time.Now().UTC(),
	}
}

func main() {
	os.Setenv("FIRESTORE_EMULATOR_HOST", "127.0.0.1:8087")
	s := storage.Configured()
	fixturePath := lflag.String("fixtures", "fixtures/seed.yaml", "Path to the seed fixture file")
	usageDaysStr := lflag.String("usage-days", "365", "Days of synthetic readings to write for smt houses")
	lflag.Configure()

	ctx := context.Background()

	usageDays, err := strconv.Atoi(*usageDaysStr)
	if err != nil || usageDays <= 0 {
		log.Ctx(ctx).ErrorContext(ctx, "invalid usage-days", "value", *usageDaysStr)
		os.Exit(1)
	}

	log.Ctx(ctx).InfoContext(ctx, "seeding fixture data", "path", *fixturePath)

	raw, err := os.ReadFile(*fixturePath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to read fixtures", "error", err)
		os.Exit(1)
	}
	var fixtures fixtureFile
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to parse fixtures", "error", err)
		os.Exit(1)
	}

	for _, r := range fixtures.TdspRates {
		err := s.UpsertTdspRate(ctx, types.TdspDelivery{
			UtilityCode:         r.UtilityCode,
			MonthlyFeeCents:     r.MonthlyFeeCents,
			DeliveryCentsPerKWH: r.DeliveryCentsPerKWH,
			EffectiveAt:         r.EffectiveAt,
		})
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to upsert tdsp rate", "utility", r.UtilityCode, "error", err)
			os.Exit(1)
		}
	}

	for _, p := range fixtures.Plans {
		if err := s.UpsertRatePlan(ctx, p.ratePlan()); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to upsert plan", "planID", p.ID, "error", err)
			os.Exit(1)
		}
	}

	end := time.Now().UTC().Truncate(time.Hour)
	start := end.AddDate(0, 0, -usageDays)

	for _, h := range fixtures.Houses {
		house := types.House{
			ID:          h.ID,
			UtilityCode: h.UtilityCode,
			UsageSource: h.UsageSource,
			BillEndDay:  h.BillEndDay,
		}
		if err := s.UpsertHouse(ctx, house); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to upsert house", "houseID", h.ID, "error", err)
			os.Exit(1)
		}

		switch h.UsageSource {
		case meter.SourceManual:
			mu := types.ManualUsage{
				Year:      end.Year() - 1,
				AnnualKWH: h.AnnualKWH,
			}
			if err := s.SetManualUsage(ctx, h.ID, mu); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to set manual usage", "houseID", h.ID, "error", err)
				os.Exit(1)
			}
		default:
			// synthetic hourly readings for smt houses
			mock := &meter.Mock{DailyKWH: h.DailyKWH}
			intervals, err := mock.Intervals(ctx, h.ID, start, end)
			if err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to generate usage", "houseID", h.ID, "error", err)
				os.Exit(1)
			}
			if err := s.UpsertUsageIntervals(ctx, h.ID, intervals); err != nil {
				log.Ctx(ctx).ErrorContext(ctx, "failed to upsert usage", "houseID", h.ID, "error", err)
				os.Exit(1)
			}
			log.Ctx(ctx).InfoContext(ctx, "wrote synthetic usage",
				"houseID", h.ID, "intervals", len(intervals))
		}
	}

	fmt.Printf("seeded %d houses, %d plans, %d tdsp snapshots\n",
		len(fixtures.Houses), len(fixtures.Plans), len(fixtures.TdspRates))
}
