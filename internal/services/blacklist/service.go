// Package blacklist maintains the local snapshot of externally rejected
// image URLs. The snapshot is owned upstream; this service only mirrors it.
package blacklist

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/interfaces"
)

const fetchTimeout = 15 * time.Second

// Service mirrors the remote blacklist into memory and persists snapshots
// so membership checks survive restarts without a network round trip.
type Service struct {
	remoteURL string
	client    *http.Client
	storage   interfaces.BlacklistStorage
	logger    arbor.ILogger

	mu   sync.RWMutex
	urls map[string]bool

	cron *cron.Cron
}

// NewService creates the blacklist service and warms it from the persisted
// snapshot. An empty remote URL disables refresh; the service then serves
// whatever the last snapshot contained.
func NewService(config *common.BlacklistConfig, storage interfaces.BlacklistStorage, logger arbor.ILogger) *Service {
	s := &Service{
		remoteURL: config.RemoteURL,
		client:    &http.Client{Timeout: fetchTimeout},
		storage:   storage,
		logger:    logger,
		urls:      make(map[string]bool),
	}

	if storage != nil {
		if snapshot, err := storage.LoadSnapshot(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Failed to load persisted blacklist snapshot")
		} else {
			s.replace(snapshot)
		}
	}

	return s
}

// Start refreshes once and schedules periodic refreshes when a cron
// expression is configured.
func (s *Service) Start(ctx context.Context, schedule string) error {
	if s.remoteURL == "" {
		s.logger.Info().
			Int("size", s.Size()).
			Msg("Blacklist refresh disabled, serving persisted snapshot")
		return nil
	}

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Initial blacklist refresh failed, continuing with snapshot")
	}

	if schedule == "" {
		return nil
	}

	s.cron = cron.New(cron.WithSeconds())
	_, err := s.cron.AddFunc(schedule, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		if err := s.Refresh(refreshCtx); err != nil {
			s.logger.Warn().Err(err).Msg("Scheduled blacklist refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid blacklist refresh schedule %q: %w", schedule, err)
	}
	s.cron.Start()

	s.logger.Info().
		Str("schedule", schedule).
		Str("remote_url", s.remoteURL).
		Msg("Blacklist refresh scheduled")
	return nil
}

// Stop halts the periodic refresh
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Contains reports whether the URL is in the local snapshot
func (s *Service) Contains(url string) bool {
	url = strings.TrimSpace(url)
	if url == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urls[url]
}

// Size returns the number of blacklisted URLs in the local snapshot
func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}

// Refresh fetches the remote snapshot, swaps it in and persists it. The
// previous snapshot stays active when the fetch fails.
func (s *Service) Refresh(ctx context.Context) error {
	if s.remoteURL == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.remoteURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create blacklist request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("blacklist fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("blacklist fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read blacklist response: %w", err)
	}

	urls := parseSnapshot(body)
	s.replace(urls)

	if s.storage != nil {
		if err := s.storage.SaveSnapshot(ctx, urls); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist blacklist snapshot")
		}
	}

	s.logger.Info().
		Int("size", len(urls)).
		Msg("Blacklist snapshot refreshed")
	return nil
}

func (s *Service) replace(urls []string) {
	next := make(map[string]bool, len(urls))
	for _, url := range urls {
		url = strings.TrimSpace(url)
		if url != "" {
			next[url] = true
		}
	}
	s.mu.Lock()
	s.urls = next
	s.mu.Unlock()
}

// parseSnapshot accepts the two shapes the upstream store has used: a bare
// JSON array of URL strings, or an object keyed by URL hash with the URL in
// a "url" field.
func parseSnapshot(body []byte) []string {
	var urls []string

	add := func(url string) {
		if url = strings.TrimSpace(url); url != "" {
			urls = append(urls, url)
		}
	}

	root := gjson.ParseBytes(body)
	switch {
	case root.IsArray():
		root.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String {
				add(value.String())
			}
			return true
		})
	case root.IsObject():
		root.ForEach(func(_, value gjson.Result) bool {
			if value.Type == gjson.String {
				add(value.String())
			} else if u := value.Get("url"); u.Exists() {
				add(u.String())
			}
			return true
		})
	}

	return urls
}
