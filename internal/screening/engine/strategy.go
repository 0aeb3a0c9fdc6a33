package engine

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"exclusioncheck/internal/screening/models"
	"exclusioncheck/internal/screening/providers"
)

// Strategy produces the per-database results of one check, one per applicable
// database, in database order.
type Strategy interface {
	Name() string
	Run(ctx context.Context, subject models.Subject) []models.DatabaseResult
}

// Checker looks one database up and never fails; providers.Adapter implements it.
type Checker interface {
	ID() models.DatabaseID
	Applies(subject models.Subject) bool
	Check(ctx context.Context, subject models.Subject) models.DatabaseResult
}

// LiveStrategy queries the databases concurrently.
type LiveStrategy struct {
	checkers []Checker
	now      func() time.Time
}

// NewLiveStrategy requires exactly one checker per known database.
func NewLiveStrategy(checkers ...Checker) (*LiveStrategy, error) {
	seen := make(map[models.DatabaseID]bool, len(checkers))
	for _, c := range checkers {
		if c == nil {
			return nil, fmt.Errorf("nil checker")
		}
		if !c.ID().IsValid() {
			return nil, fmt.Errorf("unknown database %q", c.ID())
		}
		if seen[c.ID()] {
			return nil, fmt.Errorf("duplicate checker for %s", c.ID())
		}
		seen[c.ID()] = true
	}
	for _, id := range models.DatabaseOrder {
		if !seen[id] {
			return nil, fmt.Errorf("missing checker for %s", id)
		}
	}

	ordered := slices.Clone(checkers)
	slices.SortFunc(ordered, func(a, b Checker) int {
		return a.ID().Position() - b.ID().Position()
	})
	return &LiveStrategy{checkers: ordered, now: time.Now}, nil
}

func (s *LiveStrategy) Name() string { return "live" }

// Run dispatches every applicable checker at once. Each checker writes into
// its own slot, so the order of the results never depends on completion
// order. Lookups run detached from the caller's cancellation and are bounded
// only by each checker's own timeout.
func (s *LiveStrategy) Run(ctx context.Context, subject models.Subject) []models.DatabaseResult {
	ctx = context.WithoutCancel(ctx)

	applicable := make([]Checker, 0, len(s.checkers))
	for _, c := range s.checkers {
		if c.Applies(subject) {
			applicable = append(applicable, c)
		}
	}

	results := make([]models.DatabaseResult, len(applicable))
	var g errgroup.Group
	for i, c := range applicable {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = s.failure(c.ID())
				}
			}()
			results[i] = c.Check(ctx, subject)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *LiveStrategy) failure(id models.DatabaseID) models.DatabaseResult {
	desc, _ := providers.DescriptorFor(id)
	return desc.Failure(s.now())
}

// MockStrategy fabricates results without touching the network. Statuses are
// random; details and reference ids look like real ones.
type MockStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// MockOption configures a MockStrategy.
type MockOption func(*MockStrategy)

// WithRandSource makes the generated statuses reproducible.
func WithRandSource(src rand.Source) MockOption {
	return func(m *MockStrategy) {
		if src != nil {
			m.rng = rand.New(src)
		}
	}
}

// WithMockClock overrides the search date source.
func WithMockClock(now func() time.Time) MockOption {
	return func(m *MockStrategy) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMockStrategy(opts ...MockOption) *MockStrategy {
	m := &MockStrategy{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockStrategy) Name() string { return "mock" }

func (m *MockStrategy) Run(_ context.Context, subject models.Subject) []models.DatabaseResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	var results []models.DatabaseResult
	for _, id := range models.DatabaseOrder {
		if !providers.Applicable(id, subject) {
			continue
		}
		desc, _ := providers.DescriptorFor(id)
		results = append(results, models.DatabaseResult{
			DatabaseID:   id,
			DatabaseName: desc.Name,
			Status:       models.AllStatuses[m.rng.IntN(len(models.AllStatuses))],
			SearchDate:   m.now(),
			Details:      desc.DefaultDetails,
			SearchURL:    desc.SearchURL,
			ReferenceID:  fmt.Sprintf("%s-%06d", desc.ReferencePrefix, m.rng.IntN(1_000_000)),
		})
	}
	return results
}
