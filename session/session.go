// Package session keeps the schedule state a presentation layer reads:
// the full snapshot, its vocabulary, the current selection and the
// filtered view, plus the loading flag and the last load error.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robertmeta/tvfixtures/extract"
	"github.com/robertmeta/tvfixtures/filter"
	"github.com/robertmeta/tvfixtures/model"
	"github.com/robertmeta/tvfixtures/scrape"
	"github.com/robertmeta/tvfixtures/store"
)

// DefaultDebounce is the delay between a selection change and filtering.
const DefaultDebounce = 100 * time.Millisecond

// ErrSuperseded is returned by a Load that a newer Load replaced.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Config configures a Session.
type Config struct {
	Source   scrape.Source
	Store    *store.Store
	Site     string
	Location *time.Location
	Debounce time.Duration
	Logger   *slog.Logger
}

// Status is the observable load state.
type Status struct {
	Loading   bool               `json:"loading"`
	Error     string             `json:"error,omitempty"`
	Matchdays int                `json:"matchdays"`
	Matches   int                `json:"matches"`
	LoadedAt  *time.Time         `json:"loaded_at,omitempty"`
	Build     extract.BuildStats `json:"build"`
}

// Session owns the state. Its methods are safe for concurrent use.
type Session struct {
	source   scrape.Source
	store    *store.Store
	site     string
	loc      *time.Location
	debounce time.Duration
	logger   *slog.Logger

	mu         sync.Mutex
	loading    bool
	lastErr    error
	build      extract.BuildStats
	vocabulary model.Vocabulary
	selection  model.Selection
	filtered   []model.Matchday

	loadGen    uint64
	cancelLoad context.CancelFunc

	filterGen uint64
	timer     *time.Timer
}

// New creates a Session with an empty snapshot.
func New(cfg Config) (*Session, error) {
	if cfg.Source == nil {
		return nil, errors.New("session: source is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session: store is required")
	}
	site := cfg.Site
	if site == "" {
		site = scrape.DefaultSite
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	debounce := cfg.Debounce
	if debounce < 0 {
		debounce = 0
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		source:     cfg.Source,
		store:      cfg.Store,
		site:       site,
		loc:        loc,
		debounce:   debounce,
		logger:     logger,
		vocabulary: filter.BuildVocabulary(nil),
		filtered:   []model.Matchday{},
	}, nil
}

// Load fetches and rebuilds the snapshot. Only the most recent call
// delivers: starting a Load cancels the one in flight, and a cancelled or
// superseded Load leaves the state untouched.
func (s *Session) Load(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.loadGen++
	gen := s.loadGen
	s.cancelLoad = cancel
	s.loading = true
	s.mu.Unlock()

	root, err := s.source.Fetch(ctx, s.site)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loadGen {
		return ErrSuperseded
	}
	s.cancelLoad = nil
	s.loading = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		s.lastErr = err
		s.logger.Error("load failed", "site", s.site, "error", err)
		return err
	}

	days, stats, err := extract.Parse(root, s.loc, s.logger)
	if err != nil {
		s.lastErr = err
		s.logger.Error("page has no fixtures", "site", s.site, "error", err)
		return err
	}
	// Store writes run to completion once a result is accepted.
	if err := s.store.Replace(context.WithoutCancel(ctx), days); err != nil {
		s.lastErr = fmt.Errorf("replace snapshot: %w", err)
		return s.lastErr
	}

	s.lastErr = nil
	s.build = stats
	s.vocabulary = filter.BuildVocabulary(days)
	s.logger.Info("schedule loaded", "site", s.site, "matchdays", len(days),
		"orphans", stats.Orphans, "bad_headers", stats.BadHeaders)
	s.scheduleLocked()
	return nil
}

// SetSelection replaces the selection and schedules filtering.
func (s *Session) SetSelection(sel model.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	s.scheduleLocked()
}

// scheduleLocked (re)arms filtering. A newer schedule makes older timers no-ops.
func (s *Session) scheduleLocked() {
	s.filterGen++
	gen := s.filterGen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.debounce == 0 {
		s.applyLocked()
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.filterGen {
			return
		}
		s.timer = nil
		s.applyLocked()
	})
}

// Flush runs pending filtering now.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.filterGen++
	s.applyLocked()
}

// applyLocked filters a fresh copy of the full snapshot.
func (s *Session) applyLocked() {
	days, err := s.store.Matchdays(context.Background())
	if err != nil {
		s.logger.Error("read snapshot", "error", err)
		return
	}
	s.filtered = filter.Apply(days, s.selection)
}

// All returns a fresh copy of the full snapshot.
func (s *Session) All(ctx context.Context) ([]model.Matchday, error) {
	return s.store.Matchdays(ctx)
}

// Filtered returns a copy of the last filtered view.
func (s *Session) Filtered() []model.Matchday {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneMatchdays(s.filtered)
}

// Vocabulary returns the filter values of the current snapshot.
func (s *Session) Vocabulary() model.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vocabulary
	v.Dates = append([]string{}, v.Dates...)
	v.Competitions = append([]string{}, v.Competitions...)
	v.Teams = append([]string{}, v.Teams...)
	v.TVs = append([]string{}, v.TVs...)
	return v
}

// Selection returns the current selection.
func (s *Session) Selection() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Status reports the loading flag, last error and snapshot size.
func (s *Session) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	st := Status{Loading: s.loading, Build: s.build}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	s.mu.Unlock()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return st, err
	}
	st.Matchdays = stats.Matchdays
	st.Matches = stats.Matches
	st.LoadedAt = stats.LoadedAt
	return st, nil
}

// Err returns the error of the last completed load, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close stops pending filtering and cancels an in-flight load.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.filterGen++
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
}
