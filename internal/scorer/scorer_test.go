package scorer

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/resilience"
	"github.com/sells-group/reconcile-cli/internal/store"
)

// fakeStore is an in-memory Store for scorer tests. It can inject a number of
// transient conflicts before an update succeeds.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]*model.VendorScore
	conflicts int
	calls     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.VendorScore)}
}

func (f *fakeStore) key(vendorID, persona string) string { return vendorID + "/" + persona }

func (f *fakeStore) UpdateVendorScore(_ context.Context, vendorID, persona string, apply store.ApplyScore) (*model.VendorScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.conflicts > 0 {
		f.conflicts--
		return nil, resilience.NewTransientError(store.ErrConflict)
	}

	next, err := apply(f.records[f.key(vendorID, persona)])
	if err != nil {
		return nil, err
	}
	f.records[f.key(vendorID, persona)] = next
	return next, nil
}

func (f *fakeStore) GetVendorScore(_ context.Context, vendorID, persona string) (*model.VendorScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[f.key(vendorID, persona)], nil
}

func (f *fakeStore) CreateDocument(context.Context, *model.Document) (string, error) {
	return "", nil
}
func (f *fakeStore) GetDocument(context.Context, string) (*model.Document, error) { return nil, nil }
func (f *fakeStore) ListOtherInvoices(context.Context, string) ([]model.Document, error) {
	return nil, nil
}
func (f *fakeStore) SaveComparison(context.Context, *model.Comparison) (string, error) {
	return "", nil
}
func (f *fakeStore) GetComparison(context.Context, string) (*model.Comparison, error) {
	return nil, nil
}
func (f *fakeStore) ListComparisons(context.Context, int) ([]model.Comparison, error) {
	return nil, nil
}
func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func newTestScorer(t *testing.T, fs *fakeStore) *Scorer {
	t.Helper()
	weights, err := NewWeightTable(DefaultProfiles(), DefaultConfig().VectorLen, "margin")
	require.NoError(t, err)

	s := New(fs, DefaultConfig(), weights)
	s.retry = resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond}
	return s
}

func TestSnapshot_PersonaWeighting(t *testing.T) {
	s := newTestScorer(t, newFakeStore())

	vector := make([]int, 82)
	vector[0] = 1 // inside margin's boosted band, outside operations'

	marginRisk, _, applied := s.Snapshot("margin", vector)
	assert.Equal(t, "margin", applied)
	assert.InDelta(t, 2.0, marginRisk, 1e-9)

	opsRisk, _, applied := s.Snapshot("operations", vector)
	assert.Equal(t, "operations", applied)
	assert.InDelta(t, 1.0, opsRisk, 1e-9)
}

func TestSnapshot_ScoreFormula(t *testing.T) {
	s := newTestScorer(t, newFakeStore())

	vector := make([]int, 82)
	for i := 0; i < 5; i++ {
		vector[i] = 1
	}

	risk, score, _ := s.Snapshot("margin", vector)
	assert.InDelta(t, 10.0, risk, 1e-9)
	assert.InDelta(t, round2(100*math.Exp(-0.1*10)), score, 1e-9)
}

func TestSnapshot_ZeroVectorIsPerfect(t *testing.T) {
	s := newTestScorer(t, newFakeStore())

	risk, score, _ := s.Snapshot("margin", []int{})
	assert.Zero(t, risk)
	assert.InDelta(t, 100.0, score, 1e-9)
}

func TestSnapshot_PadsAndTruncates(t *testing.T) {
	s := newTestScorer(t, newFakeStore())

	short := []int{0, 1, 0, 1}
	padded := make([]int, 82)
	copy(padded, short)

	shortRisk, shortScore, _ := s.Snapshot("compliance", short)
	paddedRisk, paddedScore, _ := s.Snapshot("compliance", padded)
	assert.Equal(t, paddedRisk, shortRisk)
	assert.Equal(t, paddedScore, shortScore)

	long := make([]int, 120)
	long[100] = 1 // beyond the vector length, ignored
	risk, _, _ := s.Snapshot("margin", long)
	assert.Zero(t, risk)
}

func TestScore_CreatesRecord(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	vector := make([]int, 82)
	vector[0] = 1

	record, err := s.Score(context.Background(), "acme", "margin", vector)
	require.NoError(t, err)

	assert.Equal(t, "acme", record.VendorID)
	assert.Equal(t, "margin", record.Persona)
	assert.InDelta(t, 2.0, record.AggregatedRisk, 1e-9)
	assert.InDelta(t, round2(100*math.Exp(-0.1*2)), record.Score, 1e-9)
	assert.Equal(t, now, record.LastUpdated)
	assert.Zero(t, record.DecayWeight)
	require.Len(t, record.History, 1)
	assert.Equal(t, record.History[0].Score, record.Score)
}

func TestScore_BlendsWithDecay(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fs.records["acme/margin"] = &model.VendorScore{
		VendorID:       "acme",
		Persona:        "margin",
		Score:          50,
		AggregatedRisk: 6.9315,
		LastUpdated:    now.Add(-30 * time.Hour),
		History:        []model.ScoreEvent{{Timestamp: now.Add(-30 * time.Hour), Score: 50, Risk: 6.9315}},
	}
	s.now = func() time.Time { return now }

	// A clean vector: fresh score 100, fresh risk 0. 30h elapsed floors to
	// one day of decay.
	record, err := s.Score(context.Background(), "acme", "margin", make([]int, 82))
	require.NoError(t, err)

	decay := math.Exp(-0.05 * 1)
	assert.InDelta(t, decay, record.DecayWeight, 1e-9)
	assert.InDelta(t, round2((50*decay+100)/2), record.Score, 1e-9)
	assert.InDelta(t, round4((6.9315*decay+0)/2), record.AggregatedRisk, 1e-9)
	require.Len(t, record.History, 2)
	assert.InDelta(t, 100.0, record.History[1].Score, 1e-9)
}

func TestScore_DeltaDaysFloorsToOne(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fs.records["acme/margin"] = &model.VendorScore{
		VendorID: "acme", Persona: "margin", Score: 80,
		LastUpdated: now.Add(-5 * time.Minute),
	}
	s.now = func() time.Time { return now }

	record, err := s.Score(context.Background(), "acme", "margin", make([]int, 82))
	require.NoError(t, err)

	// Same-day updates still decay by one full day, never zero.
	assert.InDelta(t, math.Exp(-0.05), record.DecayWeight, 1e-9)
}

func TestScore_UnknownPersonaFallsBack(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)

	record, err := s.Score(context.Background(), "acme", "procurement", make([]int, 82))
	require.NoError(t, err)
	assert.Equal(t, "margin", record.Persona)
}

func TestScore_InvalidInput(t *testing.T) {
	s := newTestScorer(t, newFakeStore())

	_, err := s.Score(context.Background(), "", "margin", []int{1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Score(context.Background(), "acme", "margin", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScore_RetriesTransientConflicts(t *testing.T) {
	fs := newFakeStore()
	fs.conflicts = 2
	s := newTestScorer(t, fs)

	_, err := s.Score(context.Background(), "acme", "margin", []int{1})
	require.NoError(t, err)
	assert.Equal(t, 3, fs.calls)
}

func TestScore_ExhaustedRetriesSurface(t *testing.T) {
	fs := newFakeStore()
	fs.conflicts = 10
	s := newTestScorer(t, fs)

	_, err := s.Score(context.Background(), "acme", "margin", []int{1})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, 3, fs.calls)
}

func TestScore_Bounds(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)

	vectors := [][]int{
		make([]int, 82),
		{1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	}
	all := make([]int, 82)
	for i := range all {
		all[i] = 1
	}
	vectors = append(vectors, all)

	for i, v := range vectors {
		risk, score, _ := s.Snapshot("compliance", v)
		assert.GreaterOrEqual(t, risk, 0.0, "vector %d", i)
		assert.Greater(t, score, 0.0, "vector %d", i)
		assert.LessOrEqual(t, score, 100.0, "vector %d", i)
	}
}

func TestScore_HistoryAppendOnly(t *testing.T) {
	fs := newFakeStore()
	s := newTestScorer(t, fs)

	for i := 0; i < 3; i++ {
		_, err := s.Score(context.Background(), "acme", "margin", []int{1})
		require.NoError(t, err)
	}

	record, err := fs.GetVendorScore(context.Background(), "acme", "margin")
	require.NoError(t, err)
	assert.Len(t, record.History, 3)
}
