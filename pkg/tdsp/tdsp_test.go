package tdsp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

type fakeRateReader struct {
	rates map[string][]types.TdspDelivery
	err   error
	calls int
}

func (r *fakeRateReader) GetTdspRates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.rates[utilityCode], nil
}

func TestDirectorySnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("picks the snapshot effective at or before the period", func(t *testing.T) {
		d := New(nil)

		snap, stale, err := d.Snapshot(ctx, CodeOncor, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.False(t, stale)
		assert.Equal(t, time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC), snap.EffectiveAt)
		assert.Equal(t, 4.2839, snap.DeliveryCentsPerKWH)

		snap, stale, err = d.Snapshot(ctx, CodeOncor, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.False(t, stale)
		assert.Equal(t, 4.8862, snap.DeliveryCentsPerKWH)
	})

	t.Run("exact effective date counts as at-or-before", func(t *testing.T) {
		d := New(nil)

		snap, stale, err := d.Snapshot(ctx, CodeTNMP, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.False(t, stale)
		assert.Equal(t, 5.8828, snap.DeliveryCentsPerKWH)
	})

	t.Run("future-only snapshots fall back to the most recent", func(t *testing.T) {
		reader := &fakeRateReader{rates: map[string][]types.TdspDelivery{
			"lubbock": {
				{
					UtilityCode:         "lubbock",
					MonthlyFeeCents:     612,
					DeliveryCentsPerKWH: 4.1,
					EffectiveAt:         time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
				},
				{
					UtilityCode:         "lubbock",
					MonthlyFeeCents:     630,
					DeliveryCentsPerKWH: 4.3,
					EffectiveAt:         time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
				},
			},
		}}
		d := New(reader)

		snap, stale, err := d.Snapshot(ctx, "lubbock", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.True(t, stale)
		assert.Equal(t, 4.3, snap.DeliveryCentsPerKWH)
	})

	t.Run("unknown utility returns nil", func(t *testing.T) {
		d := New(nil)

		snap, stale, err := d.Snapshot(ctx, "nope", time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Nil(t, snap)
		assert.False(t, stale)
	})

	t.Run("stored snapshot replaces a same-dated default", func(t *testing.T) {
		reader := &fakeRateReader{rates: map[string][]types.TdspDelivery{
			CodeOncor: {
				{
					UtilityCode:         CodeOncor,
					MonthlyFeeCents:     450,
					DeliveryCentsPerKWH: 5.01,
					EffectiveAt:         time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
				},
			},
		}}
		d := New(reader)

		snap, stale, err := d.Snapshot(ctx, CodeOncor, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.False(t, stale)
		assert.Equal(t, 5.01, snap.DeliveryCentsPerKWH)
		assert.Equal(t, 450.0, snap.MonthlyFeeCents)
	})

	t.Run("reader failure propagates", func(t *testing.T) {
		reader := &fakeRateReader{err: errors.New("unavailable")}
		d := New(reader)

		_, _, err := d.Snapshot(ctx, CodeOncor, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
		require.Error(t, err)
	})

	t.Run("reads are cached", func(t *testing.T) {
		reader := &fakeRateReader{}
		d := New(reader)

		at := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		_, _, err := d.Snapshot(ctx, CodeOncor, at)
		require.NoError(t, err)
		_, _, err = d.Snapshot(ctx, CodeOncor, at)
		require.NoError(t, err)
		assert.Equal(t, 1, reader.calls)

		d.cacheTTL = 0
		_, _, err = d.Snapshot(ctx, CodeOncor, at)
		require.NoError(t, err)
		assert.Equal(t, 2, reader.calls)
	})
}

func TestDirectoryInfo(t *testing.T) {
	infos := Info()
	require.Len(t, infos, 5)
	// stable order for listings
	assert.Equal(t, CodeAEPCentral, infos[0].Code)
	assert.Equal(t, CodeTNMP, infos[4].Code)
	for _, info := range infos {
		assert.NotEmpty(t, info.Name)
	}

	name, ok := Name(CodeCenterpoint)
	require.True(t, ok)
	assert.Equal(t, "CenterPoint Energy", name)

	_, ok = Name("nope")
	assert.False(t, ok)
}
