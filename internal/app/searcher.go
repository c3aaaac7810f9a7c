package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coreman2200/wikihat/internal/search"
)

var (
	ErrSearchInProgress = errors.New("a search is already in progress")
	ErrEmptyQuery       = errors.New("empty search query")
)

// Phase of the search lifecycle.
type Phase int

const (
	Idle Phase = iota
	Searching
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Progress interface {
	Start()
	Stop() error
}

type Results interface {
	Render(count int64) error
}

type HitCounter interface {
	HitCount(ctx context.Context, term string) (search.Result, error)
}

// Notifier shows a short, non-blocking message to the user.
type Notifier interface {
	Notify(msg string)
}

// Searcher runs one search at a time: it animates progress while the
// request is out, stops the animation, then shows the count.
type Searcher struct {
	Progress Progress
	Results  Results
	Client   HitCounter
	Notifier Notifier
	// Timeout bounds each request. Zero means search.DefaultTimeout.
	Timeout time.Duration
	Log     zerolog.Logger
	// OnPhase, when set, is called on every transition.
	OnPhase func(Phase)

	mu     sync.Mutex
	phase  Phase
	cancel context.CancelFunc
}

func (s *Searcher) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Searcher) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	if s.OnPhase != nil {
		s.OnPhase(p)
	}
}

// Cancel aborts the outstanding request, if any.
func (s *Searcher) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Search looks up query and shows its hit count. A second call while one
// is outstanding fails with ErrSearchInProgress. Request failures are
// passed to the Notifier and returned; a failure to stop the progress
// animation is returned wrapped and should be treated as fatal.
func (s *Searcher) Search(ctx context.Context, query string) (search.Result, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return search.Result{}, ErrEmptyQuery
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = search.DefaultTimeout
	}

	s.mu.Lock()
	if s.phase != Idle {
		s.mu.Unlock()
		return search.Result{}, ErrSearchInProgress
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	s.phase = Searching
	s.cancel = cancel
	s.mu.Unlock()
	if s.OnPhase != nil {
		s.OnPhase(Searching)
	}

	defer func() {
		cancel()
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		s.setPhase(Idle)
	}()

	log := s.Log.With().Str("search_id", uuid.NewString()).Str("term", term).Logger()
	log.Debug().Dur("timeout", timeout).Msg("search started")
	started := time.Now()

	s.Progress.Start()
	res, err := s.Client.HitCount(reqCtx, term)
	stopErr := s.Progress.Stop()

	if err != nil {
		s.setPhase(Failed)
		log.Warn().Err(err).Dur("took", time.Since(started)).Msg("search failed")
		if s.Notifier != nil {
			s.Notifier.Notify(err.Error())
		}
		if stopErr != nil {
			return res, errors.Join(err, fmt.Errorf("progress indicator: %w", stopErr))
		}
		return res, err
	}
	if stopErr != nil {
		s.setPhase(Failed)
		return res, fmt.Errorf("progress indicator: %w", stopErr)
	}

	if err := s.Results.Render(res.TotalHits); err != nil {
		s.setPhase(Failed)
		log.Error().Err(err).Msg("render result")
		return res, err
	}
	s.setPhase(Succeeded)
	log.Info().Int64("total_hits", res.TotalHits).Dur("took", time.Since(started)).Msg("search complete")
	return res, nil
}
