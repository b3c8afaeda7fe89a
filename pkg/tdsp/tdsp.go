package tdsp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/intelliwatt/intelliwatt/pkg/log"
	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// RateReader is the slice of the database the directory reads stored
// snapshots from.
type RateReader interface {
	GetTdspRates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error)
}

// Directory resolves delivery rate snapshots for the Texas TDSPs. Stored
// snapshots layer over the compiled-in table, with a short read cache since
// filings change delivery rates twice a year at most.
type Directory struct {
	reader   RateReader
	cacheTTL time.Duration

	mu     sync.Mutex
	cached map[string]cacheEntry
}

type cacheEntry struct {
	rates     []types.TdspDelivery
	fetchedAt time.Time
}

// Configured sets up the directory based on flags. The reader may be nil,
// which serves only the compiled-in table.
func Configured(reader RateReader) *Directory {
	d := New(reader)
	ttl := lflag.Duration("tdsp-cache-ttl", 10*time.Minute, "How long to cache TDSP snapshots read from storage. 0 disables the cache.")
	lflag.Do(func() {
		d.cacheTTL = *ttl
	})
	return d
}

// New creates a Directory over the given reader.
func New(reader RateReader) *Directory {
	return &Directory{
		reader:   reader,
		cacheTTL: 10 * time.Minute,
		cached:   make(map[string]cacheEntry),
	}
}

// Codes returns the known TDSP codes in stable order.
func Codes() []string {
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Name returns the display name for a TDSP code.
func Name(code string) (string, bool) {
	name, ok := names[code]
	return name, ok
}

// Info returns directory metadata for every known TDSP.
func Info() []types.TdspInfo {
	infos := make([]types.TdspInfo, 0, len(names))
	for _, code := range Codes() {
		infos = append(infos, types.TdspInfo{Code: code, Name: names[code]})
	}
	return infos
}

// Snapshot returns the delivery snapshot effective at or before the given
// time, falling back to the most recent one overall when every snapshot on
// file is newer. The second return reports that degraded case. Utilities
// with no snapshots at all return nil.
func (d *Directory) Snapshot(ctx context.Context, utilityCode string, at time.Time) (*types.TdspDelivery, bool, error) {
	rates, err := d.rates(ctx, utilityCode)
	if err != nil {
		return nil, false, err
	}
	if len(rates) == 0 {
		return nil, false, nil
	}
	sort.Slice(rates, func(i, j int) bool {
		return rates[i].EffectiveAt.Before(rates[j].EffectiveAt)
	})
	for i := len(rates) - 1; i >= 0; i-- {
		if !rates[i].EffectiveAt.After(at) {
			snap := rates[i]
			return &snap, false, nil
		}
	}
	// everything on file postdates the billing period
	snap := rates[len(rates)-1]
	log.Ctx(ctx).DebugContext(ctx, "no snapshot at or before period, using most recent",
		slog.String("utilityCode", utilityCode),
		slog.Time("at", at),
		slog.Time("effectiveAt", snap.EffectiveAt))
	return &snap, true, nil
}

// rates merges stored snapshots over the compiled-in defaults for one
// utility. A stored snapshot with the same effective date replaces the
// default.
func (d *Directory) rates(ctx context.Context, utilityCode string) ([]types.TdspDelivery, error) {
	d.mu.Lock()
	entry, ok := d.cached[utilityCode]
	d.mu.Unlock()
	if ok && d.cacheTTL > 0 && time.Since(entry.fetchedAt) < d.cacheTTL {
		return append([]types.TdspDelivery(nil), entry.rates...), nil
	}

	byDate := make(map[time.Time]types.TdspDelivery)
	for _, r := range defaultRates[utilityCode] {
		byDate[r.EffectiveAt.UTC()] = r
	}
	if d.reader != nil {
		stored, err := d.reader.GetTdspRates(ctx, utilityCode)
		if err != nil {
			return nil, fmt.Errorf("reading tdsp rates for %s: %w", utilityCode, err)
		}
		for _, r := range stored {
			byDate[r.EffectiveAt.UTC()] = r
		}
	}
	rates := make([]types.TdspDelivery, 0, len(byDate))
	for _, r := range byDate {
		rates = append(rates, r)
	}

	d.mu.Lock()
	d.cached[utilityCode] = cacheEntry{rates: rates, fetchedAt: time.Now()}
	d.mu.Unlock()
	return append([]types.TdspDelivery(nil), rates...), nil
}
