package tracker

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/lawgraph/entity"
	"github.com/c360/lawgraph/errors"
	"github.com/c360/lawgraph/extract"
)

type fakeSource struct {
	mu    sync.Mutex
	calls map[string][]entity.Type
	fail  map[string]error
	// failOnce errors on the first attempt for a doc, then succeeds.
	failOnce map[string]bool
	attempts map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		calls:    make(map[string][]entity.Type),
		fail:     make(map[string]error),
		failOnce: make(map[string]bool),
		attempts: make(map[string]int),
	}
}

func (f *fakeSource) MarkProcessed(_ context.Context, docID string, types []entity.Type, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[docID]++
	if err, ok := f.fail[docID]; ok {
		return err
	}
	if f.failOnce[docID] && f.attempts[docID] == 1 {
		return errors.WrapTransient(errors.ErrFlagUpdateFailed, "fake", "MarkProcessed", docID)
	}
	f.calls[docID] = types
	return nil
}

func result(docID string, types ...entity.Type) extract.Result {
	return extract.Result{
		Doc:   &entity.Document{ID: docID, Source: map[string]any{}},
		Types: types,
	}
}

func TestUpdater_MarkBatch(t *testing.T) {
	source := newFakeSource()
	updater := New(source, nil)

	outcome, err := updater.MarkBatch(context.Background(), []extract.Result{
		result("doc-1", entity.TypeJudgment, entity.TypeJudge),
		result("doc-2", entity.TypeJudgment),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Marked)
	assert.Empty(t, outcome.Failed)
	assert.Equal(t, []entity.Type{entity.TypeJudgment, entity.TypeJudge}, source.calls["doc-1"])
	assert.Equal(t, []entity.Type{entity.TypeJudgment}, source.calls["doc-2"])
}

func TestUpdater_MarkBatchPartialFailure(t *testing.T) {
	source := newFakeSource()
	source.fail["doc-2"] = errors.WrapInvalid(errors.ErrFlagUpdateFailed, "fake", "MarkProcessed", "doc-2")
	updater := New(source, nil)

	outcome, err := updater.MarkBatch(context.Background(), []extract.Result{
		result("doc-1", entity.TypeJudgment),
		result("doc-2", entity.TypeJudgment),
		result("doc-3", entity.TypeJudgment),
	})
	require.NoError(t, err, "one failing document does not fail the batch")

	assert.Equal(t, 2, outcome.Marked)
	assert.Equal(t, []string{"doc-2"}, outcome.Failed)
	assert.Contains(t, source.calls, "doc-3", "documents after the failure still merge")
}

func TestUpdater_MarkBatchRetriesTransient(t *testing.T) {
	source := newFakeSource()
	source.failOnce["doc-1"] = true
	updater := New(source, nil)

	outcome, err := updater.MarkBatch(context.Background(), []extract.Result{
		result("doc-1", entity.TypeJudgment),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Marked)
	assert.GreaterOrEqual(t, source.attempts["doc-1"], 2)
}

func TestUpdater_MarkBatchInvalidNotRetried(t *testing.T) {
	source := newFakeSource()
	source.fail["doc-1"] = errors.WrapInvalid(errors.ErrInvalidDocument, "fake", "MarkProcessed", "doc-1")
	updater := New(source, nil)

	outcome, err := updater.MarkBatch(context.Background(), []extract.Result{
		result("doc-1", entity.TypeJudgment),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-1"}, outcome.Failed)
	assert.Equal(t, 1, source.attempts["doc-1"], "non-transient failures do not retry")
}

func TestUpdater_MarkBatchCanceled(t *testing.T) {
	source := newFakeSource()
	updater := New(source, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := updater.MarkBatch(ctx, []extract.Result{result("doc-1", entity.TypeJudgment)})
	assert.Error(t, err)
	assert.NotContains(t, source.calls, "doc-1")
}
