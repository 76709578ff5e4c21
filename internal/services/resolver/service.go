package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/models"
)

const (
	modeCascade   = "cascade"
	modeAltSearch = "altsearch"
)

// service resolves one query at a time; the scheduler provides parallelism
// across events, so Resolve itself only parallelizes across adapters.
type service struct {
	policy    Policy
	adapters  map[string]interfaces.ImageSource
	metadata  interfaces.ImageSource
	altsearch interfaces.ImageSource
	blacklist interfaces.BlacklistService

	mode            string
	lenientFallback bool
	queryTimeout    time.Duration
	logger          arbor.ILogger
}

// Options wires the resolver. Metadata and AltSearch are optional; Adapters
// must contain every identifier the policy references.
type Options struct {
	Policy    Policy
	Adapters  []interfaces.ImageSource
	Metadata  interfaces.ImageSource
	AltSearch interfaces.ImageSource
	Blacklist interfaces.BlacklistService
	Config    *common.ResolverConfig
	Mode      string
	Logger    arbor.ILogger
}

// NewService builds the cascade resolver
func NewService(opts Options) interfaces.ResolverService {
	adapters := make(map[string]interfaces.ImageSource, len(opts.Adapters))
	for _, adapter := range opts.Adapters {
		adapters[adapter.Name()] = adapter
	}

	mode := opts.Mode
	if mode == "" {
		mode = modeCascade
	}

	return &service{
		policy:          opts.Policy,
		adapters:        adapters,
		metadata:        opts.Metadata,
		altsearch:       opts.AltSearch,
		blacklist:       opts.Blacklist,
		mode:            mode,
		lenientFallback: opts.Config.LenientFallback,
		queryTimeout:    opts.Config.QueryTimeout,
		logger:          opts.Logger,
	}
}

// AdapterNames returns the identifiers the policy can reference, including
// the wikipedia alias for the configured language edition.
func AdapterNames(adapters []interfaces.ImageSource) []string {
	names := make([]string, 0, len(adapters)+1)
	for _, adapter := range adapters {
		names = append(names, adapter.Name())
	}
	names = append(names, adapterWikipedia)
	return names
}

// Resolve runs the full cascade for one query. It never returns nil and
// never panics; a result with an empty ImageURL means exhaustion.
func (s *service) Resolve(ctx context.Context, query *models.SearchQuery) *models.ImageResult {
	result := &models.ImageResult{EventID: query.EventID}
	if query.Query == "" {
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rec := newTraceRecorder()
	defer func() { result.SearchTrace = rec.entries() }()

	if s.mode == modeAltSearch && s.altsearch != nil {
		s.resolveAltSearch(ctx, query, result, rec)
		return result
	}

	if MetadataFirst(query) && s.metadata != nil {
		if candidate := s.trySource(ctx, s.metadata, query, rec); candidate != nil {
			if s.accept(query, candidate, result, rec) {
				return result
			}
		}
	}

	order := s.policy.OrderFor(query.Category)
	candidates := make([]*models.ImageCandidate, len(order))

	var wg sync.WaitGroup
	for i, name := range order {
		adapter := s.adapterFor(name)
		if adapter == nil {
			continue
		}
		wg.Add(1)
		slot := i
		common.SafeGo(s.logger, "resolver."+adapter.Name(), func() {
			defer wg.Done()
			candidates[slot] = s.trySource(ctx, adapter, query, rec)
		})
	}
	wg.Wait()

	// Priority order decides, not completion order. A blacklisted candidate
	// counts as if its adapter had found nothing.
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if s.accept(query, candidate, result, rec) {
			return result
		}
	}

	s.logger.Debug().
		Str("event_id", query.EventID).
		Str("query", query.Query).
		Str("category", string(query.Category)).
		Msg("Cascade exhausted without an image")
	return result
}

// adapterFor resolves a policy identifier to a registered adapter. The
// wikipedia identifier matches the configured language edition by prefix.
func (s *service) adapterFor(name string) interfaces.ImageSource {
	if adapter, ok := s.adapters[name]; ok {
		return adapter
	}
	if name == adapterWikipedia {
		for registered, adapter := range s.adapters {
			if len(registered) > len(adapterWikipedia) && registered[:len(adapterWikipedia)] == adapterWikipedia {
				return adapter
			}
		}
	}
	return nil
}

// accept runs the blacklist check on a matched candidate and, when it
// passes, fills the result. Returns false when the candidate is rejected.
func (s *service) accept(query *models.SearchQuery, candidate *models.ImageCandidate, result *models.ImageResult, rec *traceRecorder) bool {
	if s.blacklist != nil && s.blacklist.Contains(candidate.ImageURL) {
		s.logger.Info().
			Str("event_id", query.EventID).
			Str("source", candidate.Source).
			Str("image_url", candidate.ImageURL).
			Msg("Candidate rejected by blacklist")
		rec.record(candidate.Source, query.Query, false, models.TraceNotFound)
		return false
	}

	result.ImageURL = candidate.ImageURL
	result.Source = candidate.Source

	s.logger.Info().
		Str("event_id", query.EventID).
		Str("source", candidate.Source).
		Str("image_url", candidate.ImageURL).
		Msg("Image resolved")
	return true
}

// trySource runs the per-adapter attempt ladder: strict with the event year,
// strict without it, then lenient when the fallback tier is enabled. The
// first accepted candidate wins; later tiers are never consulted.
func (s *service) trySource(ctx context.Context, adapter interfaces.ImageSource, query *models.SearchQuery, rec *traceRecorder) *models.ImageCandidate {
	text := s.queryTextFor(adapter.Name(), query)

	if candidate := s.attempt(ctx, adapter, text, query.Year, interfaces.SearchOptions{IncludeYear: true, StrictMatch: true}, rec); candidate != nil {
		return candidate
	}
	if ctx.Err() != nil {
		return nil
	}

	if query.Year > 0 {
		if candidate := s.attempt(ctx, adapter, text, query.Year, interfaces.SearchOptions{StrictMatch: true}, rec); candidate != nil {
			return candidate
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	if s.lenientFallback {
		if candidate := s.attempt(ctx, adapter, text, query.Year, interfaces.SearchOptions{}, rec); candidate != nil {
			return candidate
		}
	}
	return nil
}

// attempt runs one adapter search and records its trace entry
func (s *service) attempt(ctx context.Context, adapter interfaces.ImageSource, text string, year int, opts interfaces.SearchOptions, rec *traceRecorder) *models.ImageCandidate {
	candidate, err := adapter.Search(ctx, text, year, opts)

	withYear := opts.IncludeYear && year > 0
	switch {
	case err != nil:
		rec.record(adapter.Name(), text, withYear, models.TraceError)
		s.logger.Warn().Err(err).
			Str("source", adapter.Name()).
			Str("query", text).
			Msg("Adapter search failed")
		return nil
	case candidate == nil:
		rec.record(adapter.Name(), text, withYear, models.TraceNotFound)
		return nil
	default:
		rec.record(adapter.Name(), text, withYear, models.TraceFound)
		return candidate
	}
}

// resolveAltSearch is the single-backend session mode: one attempt, no
// strict verification ladder, blacklist still enforced.
func (s *service) resolveAltSearch(ctx context.Context, query *models.SearchQuery, result *models.ImageResult, rec *traceRecorder) {
	text := s.queryTextFor(s.altsearch.Name(), query)
	candidate := s.attempt(ctx, s.altsearch, text, query.Year, interfaces.SearchOptions{IncludeYear: true}, rec)
	if candidate == nil {
		return
	}
	s.accept(query, candidate, result, rec)
}

// queryTextFor picks the query language per backend: the native-language
// encyclopedia searches the native phrase, everything else prefers the
// English phrase when the event carries one.
func (s *service) queryTextFor(adapterName string, query *models.SearchQuery) string {
	if len(adapterName) >= len(adapterWikipedia) && adapterName[:len(adapterWikipedia)] == adapterWikipedia {
		return query.Query
	}
	if query.QueryEn != "" {
		return query.QueryEn
	}
	return query.Query
}

// traceRecorder collects attempt entries from concurrent adapter goroutines
type traceRecorder struct {
	mu    sync.Mutex
	start time.Time
	items []models.SearchTraceEntry
}

func newTraceRecorder() *traceRecorder {
	return &traceRecorder{start: time.Now()}
}

func (r *traceRecorder) record(source, query string, withYear bool, result models.TraceResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, models.SearchTraceEntry{
		Source:      source,
		Query:       query,
		WithYear:    withYear,
		Result:      result,
		TimestampMs: time.Since(r.start).Milliseconds(),
	})
}

func (r *traceRecorder) entries() []models.SearchTraceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SearchTraceEntry, len(r.items))
	copy(out, r.items)
	return out
}
