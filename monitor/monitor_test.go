package monitor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/lawgraph/docindex"
	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/extract"
	"github.com/c360/lawgraph/graphstore"
	"github.com/c360/lawgraph/metric"
	"github.com/c360/lawgraph/mutation"
	"github.com/c360/lawgraph/tracker"
)

type fakeSource struct {
	mu     sync.Mutex
	docs   []*entity.Document
	target entity.Type
	err    error
}

func (f *fakeSource) Ping(context.Context) error { return nil }

func (f *fakeSource) FetchUnprocessed(_ context.Context, target entity.Type, limit int) ([]*entity.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = target
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.docs) > limit {
		return f.docs[:limit], nil
	}
	return f.docs, nil
}

func (f *fakeSource) Stats(context.Context) (docindex.Stats, error) {
	return docindex.Stats{Total: 10, Processed: 4, Unprocessed: 6}, nil
}

type fakeStore struct {
	mu        sync.Mutex
	mutations []*mutation.Transaction
	snapshots []*mutation.Transaction
	err       error
	block     chan struct{}
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Mutate(_ context.Context, tx *mutation.Transaction) (graphstore.Result, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return graphstore.Result{}, f.err
	}
	f.mutations = append(f.mutations, tx)
	return graphstore.Result{Nodes: len(tx.Set)}, nil
}

func (f *fakeStore) WriteSnapshot(tx *mutation.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, tx)
	return nil
}

type fakeUpdater struct {
	mu      sync.Mutex
	batches [][]extract.Result
	failed  []string
}

func (f *fakeUpdater) MarkBatch(_ context.Context, results []extract.Result) (tracker.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, results)
	outcome := tracker.Outcome{Marked: len(results) - len(f.failed), Failed: f.failed}
	return outcome, nil
}

func testDoc(id, title string) *entity.Document {
	return &entity.Document{ID: id, Source: map[string]any{
		"title":  title,
		"doc_id": "doc_" + id,
		"judges": []any{"A. Bose"},
	}}
}

func newService(t *testing.T, source *fakeSource, store *fakeStore, updater *fakeUpdater) *Service {
	t.Helper()
	s, err := New(Config{Interval: 10 * time.Millisecond, BatchSize: 10}, source, store, updater)
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{}, nil, &fakeStore{}, &fakeUpdater{})
	assert.Error(t, err)
	_, err = New(Config{}, &fakeSource{}, nil, &fakeUpdater{})
	assert.Error(t, err)
	_, err = New(Config{}, &fakeSource{}, &fakeStore{}, nil)
	assert.Error(t, err)
}

func TestRunOnce_FullCycle(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B"), testDoc("2", "C v. D")}}
	store := &fakeStore{}
	updater := &fakeUpdater{}
	s := newService(t, source, store, updater)

	report, err := s.RunOnce(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 2, report.Marked)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 2, report.Entities["judgment"])
	assert.Equal(t, 2, report.Entities["judges"])

	require.Len(t, store.mutations, 1, "the whole batch is one transaction")
	require.Len(t, updater.batches, 1)
	assert.Len(t, updater.batches[0], 2)

	status := s.Status()
	assert.Equal(t, int64(1), status.Cycles)
	assert.Equal(t, int64(2), status.Documents)
}

func TestRunOnce_CommitFailureMarksNothing(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	store := &fakeStore{err: errors.WrapTransient(errors.ErrCommitFailed, "fake", "Mutate", "boom")}
	updater := &fakeUpdater{}
	s := newService(t, source, store, updater)

	_, err := s.RunOnce(context.Background(), RunOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCommitFailed)
	assert.Empty(t, updater.batches, "no flags move when the commit fails")

	status := s.Status()
	require.NotEmpty(t, status.RecentErrors)
}

func TestRunOnce_DryRun(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	store := &fakeStore{}
	updater := &fakeUpdater{}
	s := newService(t, source, store, updater)

	report, err := s.RunOnce(context.Background(), RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Positive(t, report.Nodes)
	assert.Len(t, store.snapshots, 1, "dry runs snapshot the transaction")
	assert.Empty(t, store.mutations, "dry runs never commit")
	assert.Empty(t, updater.batches, "dry runs never mark")

	// The would-be commit is surfaced on the report itself.
	require.NotEmpty(t, report.Transaction)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(report.Transaction, &payload))
	assert.Contains(t, payload, "query")
	assert.Contains(t, payload, "set")
}

func TestRunOnce_TargetedEntity(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	s := newService(t, source, &fakeStore{}, &fakeUpdater{})

	_, err := s.RunOnce(context.Background(), RunOptions{Entity: entity.TypeJudge})
	require.NoError(t, err)
	assert.Equal(t, entity.TypeJudge, source.target,
		"the target type reaches the source query")
}

func TestRunOnce_TargetedMarksOnlyTargetFlag(t *testing.T) {
	withActs := testDoc("1", "A v. B")
	withActs.Source["acts"] = []any{"Indian Penal Code"}
	withoutActs := testDoc("2", "C v. D")

	source := &fakeSource{docs: []*entity.Document{withActs, withoutActs}}
	updater := &fakeUpdater{}
	s := newService(t, source, &fakeStore{}, updater)

	_, err := s.RunOnce(context.Background(), RunOptions{Entity: entity.TypeAct})
	require.NoError(t, err)

	require.Len(t, updater.batches, 1)
	require.Len(t, updater.batches[0], 1,
		"documents without the target type keep all their flags")
	assert.Equal(t, "1", updater.batches[0][0].Doc.ID)
	assert.Equal(t, []entity.Type{entity.TypeAct}, updater.batches[0][0].Types,
		"a targeted run flips only the targeted flag, never the other detected types")
}

func TestRunOnce_EmptyFetch(t *testing.T) {
	s := newService(t, &fakeSource{}, &fakeStore{}, &fakeUpdater{})

	report, err := s.RunOnce(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
}

func TestRunOnce_SingleBatchInFlight(t *testing.T) {
	block := make(chan struct{})
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	store := &fakeStore{block: block}
	s := newService(t, source, store, &fakeUpdater{})

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.RunOnce(context.Background(), RunOptions{})
		firstDone <- err
	}()

	// Wait for the first run to reach the store.
	require.Eventually(t, func() bool { return s.Status().InFlight }, time.Second, 5*time.Millisecond)

	_, err := s.RunOnce(context.Background(), RunOptions{})
	assert.True(t, stderrors.Is(err, errors.ErrBatchInFlight))

	close(block)
	require.NoError(t, <-firstDone)

	// Exclusion lifts once the batch completes.
	_, err = s.RunOnce(context.Background(), RunOptions{})
	assert.NoError(t, err)
}

func TestRunOnce_DependencyGaugesWithoutHealthMonitor(t *testing.T) {
	metrics := metric.NewMetrics()
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	s, err := New(Config{Interval: time.Minute, BatchSize: 10},
		source, &fakeStore{}, &fakeUpdater{}, WithMetrics(metrics))
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background(), RunOptions{})
	require.NoError(t, err)

	// Reachability gauges move even when no health monitor is attached.
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SourceUp))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreUp))
}

func TestService_Lifecycle(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	store := &fakeStore{}
	s := newService(t, source, store, &fakeUpdater{})

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), errors.ErrAlreadyStarted)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.mutations) > 0
	}, time.Second, 5*time.Millisecond, "the loop processes on its own")

	require.NoError(t, s.Stop(time.Second))
	assert.ErrorIs(t, s.Stop(time.Second), errors.ErrNotStarted)
}

func TestService_PauseResume(t *testing.T) {
	s := newService(t, &fakeSource{}, &fakeStore{}, &fakeUpdater{})
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(time.Second)

	assert.True(t, s.Polling())
	assert.True(t, s.Pause())
	assert.False(t, s.Polling())
	assert.False(t, s.Pause(), "pausing twice reports it was already paused")
	assert.True(t, s.Resume())
	assert.True(t, s.Polling())
}

func TestService_StartPaused(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	store := &fakeStore{}
	s, err := New(Config{Interval: 5 * time.Millisecond, BatchSize: 10, StartPaused: true},
		source, store, &fakeUpdater{})
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop(time.Second)

	assert.False(t, s.Polling())
	time.Sleep(30 * time.Millisecond)
	store.mu.Lock()
	assert.Empty(t, store.mutations, "a paused loop does not process")
	store.mu.Unlock()

	// Manual runs still work while paused.
	_, err = s.RunOnce(context.Background(), RunOptions{})
	assert.NoError(t, err)
}

func TestService_Events(t *testing.T) {
	source := &fakeSource{docs: []*entity.Document{testDoc("1", "A v. B")}}
	s := newService(t, source, &fakeStore{}, &fakeUpdater{})

	events, cancel := s.Subscribe()
	defer cancel()

	_, err := s.RunOnce(context.Background(), RunOptions{})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, "cycle", event.Kind)
		require.NotNil(t, event.Report)
		assert.Equal(t, 1, event.Report.Marked)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
