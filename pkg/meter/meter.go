package meter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/intelliwatt/intelliwatt/pkg/types"
)

// Known usage source names. Each house stores the name of the source that
// serves its readings.
const (
	SourceSMT    = "smt"
	SourceManual = "manual"
	SourceMock   = "mock"
)

// Source provides a house's usage intervals for estimation.
type Source interface {
	// Intervals returns readings whose start falls in [start, end).
	Intervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error)

	// BucketKeys reports the usage granularities this source can stand
	// behind. The computability gate compares these against what a rate
	// model's pricing shape requires.
	BucketKeys() []string
}

// IntervalReader is the slice of the database the SMT source reads from.
type IntervalReader interface {
	GetUsageIntervals(ctx context.Context, houseID string, start, end time.Time) ([]types.Interval, error)
}

// ManualReader is the slice of the database the manual source reads from.
type ManualReader interface {
	GetHouse(ctx context.Context, houseID string) (types.House, error)
	GetManualUsage(ctx context.Context, houseID string) (types.ManualUsage, error)
}

// Reader combines the database slices the configured sources need.
type Reader interface {
	IntervalReader
	ManualReader
}

// Configured sets up the usage source registry over the database.
func Configured(db Reader) *Map {
	m := NewMap()
	m.SetSource(SourceSMT, NewSMT(db))
	m.SetSource(SourceManual, NewManual(db))
	mockSource := lflag.Bool("mock-usage-source", false, "Serve synthetic usage for houses with usageSource=mock")
	lflag.Do(func() {
		if *mockSource {
			m.SetSource(SourceMock, &Mock{})
		}
	})
	return m
}

// Map manages the available usage sources.
type Map struct {
	mu      sync.Mutex
	sources map[string]Source
}

// NewMap creates a new source Map.
func NewMap() *Map {
	return &Map{
		sources: make(map[string]Source),
	}
}

// Source returns the source with the given name.
func (m *Map) Source(name string) (Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if src, ok := m.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("unknown usage source: %s", name)
}

// ForHouse returns the source serving the given house. Houses that do not
// pick one default to smart meter data.
func (m *Map) ForHouse(house types.House) (Source, error) {
	name := house.UsageSource
	if name == "" {
		name = SourceSMT
	}
	return m.Source(name)
}

// SetSource sets the source for the given name. This is primarily used for testing.
func (m *Map) SetSource(name string, src Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[name] = src
}
