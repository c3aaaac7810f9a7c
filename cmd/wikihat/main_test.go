package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/wikihat/internal/app"
	"github.com/coreman2200/wikihat/internal/config"
	"github.com/coreman2200/wikihat/internal/peripheral"
	"github.com/coreman2200/wikihat/internal/search"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSimConfig(t *testing.T, baseURL string) string {
	t.Helper()
	cfg := config.Default()
	cfg.LED.Driver = "sim"
	cfg.LED.Cadence = time.Millisecond
	cfg.Display.Driver = "sim"
	cfg.Search.BaseURL = baseURL
	cfg.Search.Timeout = time.Second
	cfg.Log.Level = "error"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.Save(path, cfg))
	return path
}

func TestSearchCommandPrintsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "rainbow hat", r.URL.Query().Get("srsearch"))
		_, _ = w.Write([]byte(`{"query":{"searchinfo":{"totalhits":4321}}}`))
	}))
	defer srv.Close()

	out, err := execute(t, "--config", writeSimConfig(t, srv.URL), "search", "--hold", "0", "rainbow", "hat")
	require.NoError(t, err)
	assert.Contains(t, out, "4321 result found")
}

func TestSearchCommandReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	out, err := execute(t, "--config", writeSimConfig(t, srv.URL), "search", "--hold", "0", "x")
	var netErr *search.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, alreadyReported(err), "main must not log it a second time")
	assert.Equal(t, 1, strings.Count(out, "502"), "notifier output goes to stderr once")
}

func TestPeripheralFailureIsLogged(t *testing.T) {
	ioErr := &peripheral.IOError{Peripheral: "LED strip", Op: "write", Err: os.ErrClosed}
	assert.False(t, alreadyReported(ioErr))
	assert.False(t, alreadyReported(errors.Join(&search.NetworkError{Op: "search", Err: io.EOF}, ioErr)))
	assert.True(t, alreadyReported(&reportedError{err: ioErr}))
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeSimConfig(t, "http://example.invalid")
	out, err := execute(t, "--config", path, "--led-count", "12", "--log-level", "error", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "count: 12")
	assert.Contains(t, out, "driver: sim")
	assert.Contains(t, out, "base_url: http://example.invalid")
}

func TestMissingConfigUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	out, err := execute(t, "--config", path, "--log-level", "error", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: apa102")
}

func TestInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := execute(t, "--config", path, "--log-level", "loud", "config", "show")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	out, err := execute(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = execute(t, "--config", path, "config", "init")
	assert.Error(t, err, "refuses to overwrite")
	_, err = execute(t, "--config", path, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestSelftestWithSimDrivers(t *testing.T) {
	path := writeSimConfig(t, "http://example.invalid")
	out, err := execute(t, "--config", path, "selftest", "--hold", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "selftest passed")
}

func TestSearchNeedsATerm(t *testing.T) {
	_, err := execute(t, "search")
	assert.Error(t, err)
}

type stubProgress struct{ err error }

func (p stubProgress) Start()      {}
func (p stubProgress) Stop() error { return p.err }

type stubResults struct{ shown []int64 }

func (r *stubResults) Render(n int64) error {
	r.shown = append(r.shown, n)
	return nil
}

type stubClient struct{ err error }

func (c stubClient) HitCount(_ context.Context, term string) (search.Result, error) {
	if c.err != nil {
		return search.Result{}, c.err
	}
	return search.Result{Term: term, TotalHits: int64(len(term))}, nil
}

func lines(in ...string) func() (string, error) {
	return func() (string, error) {
		if len(in) == 0 {
			return "", io.EOF
		}
		l := in[0]
		in = in[1:]
		return l, nil
	}
}

func TestReplSearchesEachLine(t *testing.T) {
	res := &stubResults{}
	s := &app.Searcher{Progress: stubProgress{}, Results: res, Client: stubClient{}, Log: zerolog.Nop()}
	var out bytes.Buffer

	err := repl(context.Background(), lines("abc", "  ", "hello", "exit", "never"), &out, s)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, res.shown)
	assert.Contains(t, out.String(), "5 result found")
}

func TestReplSurvivesNetworkErrors(t *testing.T) {
	res := &stubResults{}
	netErr := &search.NetworkError{Op: "request failed", Err: errors.New("offline")}
	s := &app.Searcher{Progress: stubProgress{}, Results: res, Client: stubClient{err: netErr}, Log: zerolog.Nop()}

	err := repl(context.Background(), lines("a", "b"), io.Discard, s)
	assert.NoError(t, err)
	assert.Empty(t, res.shown)
}

func TestReplStopsOnPeripheralError(t *testing.T) {
	ioErr := &peripheral.IOError{Peripheral: "LED strip", Op: "write", Err: os.ErrClosed}
	s := &app.Searcher{Progress: stubProgress{err: ioErr}, Results: &stubResults{}, Client: stubClient{}, Log: zerolog.Nop()}

	err := repl(context.Background(), lines("a", "b"), io.Discard, s)
	var got *peripheral.IOError
	assert.ErrorAs(t, err, &got)
}

func TestFatalClassification(t *testing.T) {
	assert.False(t, fatal(&search.APIError{Code: "x", Info: "y"}))
	assert.True(t, fatal(&peripheral.IOError{Peripheral: "display", Op: "show", Err: io.ErrClosedPipe}))
	assert.False(t, fatal(errors.New("context deadline exceeded")))
}
