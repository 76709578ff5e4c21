package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
	"github.com/ternarybob/memoria/internal/services/events"
)

type fakeResolver struct {
	delay   time.Duration
	foundAt map[string]bool

	active    int32
	maxActive int32
	calls     int32
}

func (f *fakeResolver) Resolve(ctx context.Context, query *models.SearchQuery) *models.ImageResult {
	atomic.AddInt32(&f.calls, 1)
	active := atomic.AddInt32(&f.active, 1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if active <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, active) {
			break
		}
	}
	defer atomic.AddInt32(&f.active, -1)

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return &models.ImageResult{EventID: query.EventID}
		}
	}

	result := &models.ImageResult{EventID: query.EventID}
	if f.foundAt[query.EventID] {
		result.ImageURL = "https://img.example/" + query.EventID + ".jpg"
		result.Source = "commons"
	}
	return result
}

type memTraceStorage struct {
	mu      sync.Mutex
	results map[string]*models.ImageResult
}

func newMemTraceStorage() *memTraceStorage {
	return &memTraceStorage{results: make(map[string]*models.ImageResult)}
}

func (m *memTraceStorage) SaveResult(ctx context.Context, result *models.ImageResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.EventID] = result
	return nil
}

func (m *memTraceStorage) GetResult(ctx context.Context, eventID string) (*models.ImageResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[eventID], nil
}

func queryBatch(n int) []*models.SearchQuery {
	batch := make([]*models.SearchQuery, n)
	for i := range batch {
		batch[i] = &models.SearchQuery{
			EventID:  fmt.Sprintf("ev-%d", i),
			Query:    fmt.Sprintf("event %d", i),
			Category: models.CategoryWorld,
		}
	}
	return batch
}

func newTestScheduler(resolver interfaces.ResolverService, traces interfaces.TraceStorage, concurrency int) interfaces.SchedulerService {
	logger := common.GetLogger()
	bus := events.NewService(logger)
	config := &common.SchedulerConfig{Concurrency: concurrency, PumpInterval: 10 * time.Millisecond}
	return NewService(resolver, bus, traces, config, logger)
}

func waitForDrain(t *testing.T, svc interfaces.SchedulerService, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !svc.IsSearching() && svc.SearchedCount() == want
	}, 5*time.Second, 10*time.Millisecond)
}

func TestEnqueueDrainsAndCounts(t *testing.T) {
	resolver := &fakeResolver{foundAt: map[string]bool{"ev-0": true, "ev-2": true}}
	traces := newMemTraceStorage()
	svc := newTestScheduler(resolver, traces, 3)

	svc.Enqueue(queryBatch(5))
	waitForDrain(t, svc, 5)

	assert.Equal(t, 5, svc.SearchedCount())
	assert.Equal(t, 2, svc.FoundCount())
	assert.Equal(t, 0, svc.QueueLength())

	stored, err := traces.GetResult(context.Background(), "ev-0")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Found())
}

func TestEnqueueIsIdempotentPerEventID(t *testing.T) {
	resolver := &fakeResolver{foundAt: map[string]bool{}}
	svc := newTestScheduler(resolver, newMemTraceStorage(), 2)

	batch := queryBatch(4)
	svc.Enqueue(batch)
	svc.Enqueue(batch)
	svc.Enqueue(batch[:2])

	waitForDrain(t, svc, 4)
	assert.Equal(t, int32(4), atomic.LoadInt32(&resolver.calls))
}

func TestEnqueueSkipsInvalidQueries(t *testing.T) {
	resolver := &fakeResolver{}
	svc := newTestScheduler(resolver, newMemTraceStorage(), 2)

	svc.Enqueue([]*models.SearchQuery{
		nil,
		{EventID: "", Query: "no id"},
		{EventID: "ev-ok", Query: ""},
	})

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, svc.SearchedCount())
	assert.False(t, svc.IsSearching())
}

func TestConcurrencyIsBounded(t *testing.T) {
	resolver := &fakeResolver{delay: 30 * time.Millisecond}
	svc := newTestScheduler(resolver, newMemTraceStorage(), 3)

	svc.Enqueue(queryBatch(12))
	waitForDrain(t, svc, 12)

	assert.LessOrEqual(t, atomic.LoadInt32(&resolver.maxActive), int32(3))
	assert.Greater(t, atomic.LoadInt32(&resolver.maxActive), int32(1), "pool should actually run in parallel")
}

func TestResetDiscardsQueueAndLateResults(t *testing.T) {
	resolver := &fakeResolver{delay: 100 * time.Millisecond, foundAt: map[string]bool{"ev-0": true}}
	svc := newTestScheduler(resolver, newMemTraceStorage(), 2)

	svc.Enqueue(queryBatch(8))
	time.Sleep(20 * time.Millisecond)
	svc.Reset()

	assert.Equal(t, 0, svc.SearchedCount())
	assert.Equal(t, 0, svc.FoundCount())
	assert.Equal(t, 0, svc.QueueLength())
	assert.False(t, svc.IsSearching())

	// counters must stay zero even after the cancelled workers unwind
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 0, svc.SearchedCount())
	assert.Equal(t, 0, svc.FoundCount())
}

func TestEnqueueAfterResetResolvesSameEventIDs(t *testing.T) {
	resolver := &fakeResolver{}
	svc := newTestScheduler(resolver, newMemTraceStorage(), 2)

	svc.Enqueue(queryBatch(3))
	waitForDrain(t, svc, 3)

	svc.Reset()
	svc.Enqueue(queryBatch(3))
	waitForDrain(t, svc, 3)

	assert.Equal(t, 3, svc.SearchedCount())
}

func TestProgressEventsPublished(t *testing.T) {
	logger := common.GetLogger()
	bus := events.NewService(logger)

	var progressCount int32
	drained := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(interfaces.EventSearchProgress, func(ctx context.Context, event interfaces.Event) error {
		atomic.AddInt32(&progressCount, 1)
		return nil
	}))
	require.NoError(t, bus.Subscribe(interfaces.EventSearchDrained, func(ctx context.Context, event interfaces.Event) error {
		select {
		case drained <- struct{}{}:
		default:
		}
		return nil
	}))

	resolver := &fakeResolver{foundAt: map[string]bool{"ev-1": true}}
	config := &common.SchedulerConfig{Concurrency: 2, PumpInterval: 10 * time.Millisecond}
	svc := NewService(resolver, bus, newMemTraceStorage(), config, logger)

	svc.Enqueue(queryBatch(3))

	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("drain event never published")
	}
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&progressCount) == 3
	}, 2*time.Second, 10*time.Millisecond)
}
