package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/wikihat/internal/search"
)

// events records calls from every fake in order.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeProgress struct {
	ev      *events
	stopErr error
}

func (p *fakeProgress) Start() { p.ev.add("start") }
func (p *fakeProgress) Stop() error {
	p.ev.add("stop")
	return p.stopErr
}

type fakeResults struct{ ev *events }

func (r *fakeResults) Render(n int64) error {
	r.ev.add(fmt.Sprintf("render:%d", n))
	return nil
}

type fakeClient struct {
	ev      *events
	hits    int64
	err     error
	block   chan struct{}
	started chan struct{}
}

func (c *fakeClient) HitCount(ctx context.Context, term string) (search.Result, error) {
	c.ev.add("request:" + term)
	if c.started != nil {
		close(c.started)
	}
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return search.Result{}, &search.NetworkError{Op: "request failed", Err: ctx.Err()}
		}
	}
	if c.err != nil {
		return search.Result{}, c.err
	}
	return search.Result{Term: term, TotalHits: c.hits}, nil
}

type fakeNotifier struct{ ev *events }

func (n *fakeNotifier) Notify(msg string) { n.ev.add("notify:" + msg) }

func newTestSearcher(client *fakeClient) (*Searcher, *events, *fakeProgress) {
	ev := &events{}
	client.ev = ev
	p := &fakeProgress{ev: ev}
	s := &Searcher{
		Progress: p,
		Results:  &fakeResults{ev: ev},
		Client:   client,
		Notifier: &fakeNotifier{ev: ev},
		Timeout:  time.Second,
		Log:      zerolog.Nop(),
	}
	return s, ev, p
}

func TestSearchSuccessStopsBeforeRender(t *testing.T) {
	s, ev, _ := newTestSearcher(&fakeClient{hits: 12345})
	var phases []Phase
	s.OnPhase = func(p Phase) { phases = append(phases, p) }

	res, err := s.Search(context.Background(), "  golang ")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), res.TotalHits)
	assert.Equal(t, []string{"start", "request:golang", "stop", "render:12345"}, ev.list())
	assert.Equal(t, []Phase{Searching, Succeeded, Idle}, phases)
	assert.Equal(t, Idle, s.Phase())
}

func TestSearchFailureNotifiesAndStops(t *testing.T) {
	s, ev, _ := newTestSearcher(&fakeClient{err: &search.NetworkError{Op: "request failed", Err: errors.New("no route to host")}})
	var phases []Phase
	s.OnPhase = func(p Phase) { phases = append(phases, p) }

	_, err := s.Search(context.Background(), "golang")
	var netErr *search.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, []string{"start", "request:golang", "stop", "notify:request failed: no route to host"}, ev.list())
	assert.Equal(t, []Phase{Searching, Failed, Idle}, phases)
}

func TestSearchEmptyQueryIsIgnored(t *testing.T) {
	s, ev, _ := newTestSearcher(&fakeClient{})
	_, err := s.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Empty(t, ev.list())
}

func TestSearchRejectsOverlap(t *testing.T) {
	client := &fakeClient{hits: 1, block: make(chan struct{}), started: make(chan struct{})}
	s, ev, _ := newTestSearcher(client)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "first")
		done <- err
	}()
	<-client.started
	assert.Equal(t, Searching, s.Phase())

	_, err := s.Search(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSearchInProgress)

	close(client.block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"start", "request:first", "stop", "render:1"}, ev.list())
}

func TestSearchCancel(t *testing.T) {
	client := &fakeClient{block: make(chan struct{}), started: make(chan struct{})}
	s, ev, _ := newTestSearcher(client)

	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), "slow")
		done <- err
	}()
	<-client.started
	s.Cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, ev.list(), "stop")
	assert.Equal(t, Idle, s.Phase())
}

func TestSearchTimeout(t *testing.T) {
	client := &fakeClient{block: make(chan struct{})}
	s, _, _ := newTestSearcher(client)
	s.Timeout = 10 * time.Millisecond

	_, err := s.Search(context.Background(), "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSearchStopFailureIsReturned(t *testing.T) {
	s, ev, p := newTestSearcher(&fakeClient{hits: 3})
	boom := errors.New("strip write")
	p.stopErr = boom

	_, err := s.Search(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, ev.list(), "render:3")
	assert.Equal(t, Idle, s.Phase())
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	ConsoleNotifier{W: &buf}.Notify("timeout")
	assert.Contains(t, buf.String(), "timeout")
}

func TestSummary(t *testing.T) {
	assert.Contains(t, Summary(42), "42 result found")
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "searching", Searching.String())
	assert.Equal(t, "failed", Failed.String())
}
