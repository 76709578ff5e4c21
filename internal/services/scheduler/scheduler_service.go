// Package scheduler turns the stream of enqueued search queries into
// bounded-parallel image resolutions with live progress events.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
)

type service struct {
	resolver interfaces.ResolverService
	events   interfaces.EventService
	traces   interfaces.TraceStorage
	logger   arbor.ILogger

	concurrency  int
	pumpInterval time.Duration

	mu       sync.Mutex
	queue    []*models.SearchQuery
	seen     map[string]bool
	searched int
	found    int
	pumping  bool

	// generation fences a session: Reset bumps it and every in-flight
	// worker compares before committing its result
	generation uint64
	sessionID  string
	cancel     context.CancelFunc

	inflight int64
}

// NewService creates the search scheduler. Traces may be nil when trace
// persistence is disabled.
func NewService(resolver interfaces.ResolverService, events interfaces.EventService, traces interfaces.TraceStorage, config *common.SchedulerConfig, logger arbor.ILogger) interfaces.SchedulerService {
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	pumpInterval := config.PumpInterval
	if pumpInterval <= 0 {
		pumpInterval = 100 * time.Millisecond
	}

	return &service{
		resolver:     resolver,
		events:       events,
		traces:       traces,
		logger:       logger,
		concurrency:  concurrency,
		pumpInterval: pumpInterval,
		seen:         make(map[string]bool),
	}
}

// Enqueue adds queries whose event ids have not been seen this session and
// starts the pump when it is idle. Repeated calls with overlapping batches
// are harmless.
func (s *service) Enqueue(queries []*models.SearchQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, query := range queries {
		if query == nil || query.EventID == "" || query.Query == "" {
			continue
		}
		if s.seen[query.EventID] {
			continue
		}
		s.seen[query.EventID] = true
		s.queue = append(s.queue, query)
		added++
	}

	if added > 0 {
		s.logger.Info().
			Int("added", added).
			Int("queued", len(s.queue)).
			Msg("Search queries enqueued")
	}

	if len(s.queue) > 0 && !s.pumping {
		s.startPumpLocked()
	}
}

// startPumpLocked launches the single pump goroutine. Caller holds s.mu.
func (s *service) startPumpLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.pumping = true
	if s.sessionID == "" {
		s.sessionID = common.NewSessionID()
	}
	gen := s.generation

	s.logger.Debug().
		Str("session_id", s.sessionID).
		Int("concurrency", s.concurrency).
		Msg("Starting search pump")

	common.SafeGo(s.logger, "scheduler.pump", func() {
		s.pump(ctx, gen)
	})
}

// pump dispatches queued queries to a bounded worker pool until the queue
// drains or the session is reset.
func (s *service) pump(ctx context.Context, gen uint64) {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for {
		if ctx.Err() != nil {
			break
		}

		query := s.pop(gen)
		if query == nil {
			if atomic.LoadInt64(&s.inflight) == 0 {
				if s.finishPump(gen) {
					wg.Wait()
					return
				}
				// new work arrived between pop and finish, keep pumping
				continue
			}
			select {
			case <-time.After(s.pumpInterval):
			case <-ctx.Done():
			}
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}

		wg.Add(1)
		atomic.AddInt64(&s.inflight, 1)
		q := query
		common.SafeGo(s.logger, "scheduler.worker", func() {
			defer func() {
				<-sem
				atomic.AddInt64(&s.inflight, -1)
				wg.Done()
			}()
			s.resolveOne(ctx, gen, q)
		})
	}

	wg.Wait()
}

// pop takes the next queued query, or nil when the queue is empty or the
// session has moved on.
func (s *service) pop(gen uint64) *models.SearchQuery {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || len(s.queue) == 0 {
		return nil
	}
	query := s.queue[0]
	s.queue = s.queue[1:]
	return query
}

// finishPump marks the pump idle and announces the drain. Returns false when
// new work was enqueued concurrently, in which case the pump keeps running.
func (s *service) finishPump(gen uint64) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return true
	}
	if len(s.queue) > 0 {
		s.mu.Unlock()
		return false
	}
	s.pumping = false
	searched, found := s.searched, s.found
	s.mu.Unlock()

	s.logger.Info().
		Int("searched", searched).
		Int("found", found).
		Msg("Search queue drained")

	s.events.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventSearchDrained,
		Payload: s.progressSnapshot(),
	})
	return true
}

// resolveOne runs the cascade for a single query and commits the result
// unless the session was reset while it ran.
func (s *service) resolveOne(ctx context.Context, gen uint64, query *models.SearchQuery) {
	result := s.resolver.Resolve(ctx, query)

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		s.logger.Debug().
			Str("event_id", query.EventID).
			Msg("Discarding result from reset session")
		return
	}
	s.searched++
	if result.Found() {
		s.found++
	}
	s.mu.Unlock()

	if s.traces != nil {
		if err := s.traces.SaveResult(ctx, result); err != nil {
			s.logger.Warn().Err(err).
				Str("event_id", query.EventID).
				Msg("Failed to persist search trace")
		}
	}

	eventType := interfaces.EventImageNotFound
	if result.Found() {
		eventType = interfaces.EventImageFound
	}
	s.events.Publish(context.Background(), interfaces.Event{Type: eventType, Payload: result})
	s.events.Publish(context.Background(), interfaces.Event{
		Type:    interfaces.EventSearchProgress,
		Payload: s.progressSnapshot(),
	})
}

// Reset abandons the current session: queued work is dropped, in-flight
// resolutions are cancelled and their late results discarded, and the dedup
// set starts fresh so the same event ids may be resolved again.
func (s *service) Reset() {
	s.mu.Lock()
	s.generation++
	s.queue = nil
	s.seen = make(map[string]bool)
	s.searched = 0
	s.found = 0
	s.pumping = false
	sessionID := s.sessionID
	s.sessionID = ""
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.logger.Info().Str("session_id", sessionID).Msg("Search session reset")
}

func (s *service) IsSearching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pumping
}

func (s *service) SearchedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searched
}

func (s *service) FoundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.found
}

func (s *service) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *service) progressSnapshot() *models.SearchProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &models.SearchProgress{
		Searched:  s.searched,
		Found:     s.found,
		Queued:    len(s.queue),
		Searching: s.pumping,
	}
}
