package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/wikihat/internal/config"
	"github.com/coreman2200/wikihat/internal/led"
	"github.com/coreman2200/wikihat/internal/model"
	"github.com/coreman2200/wikihat/internal/segment"
)

func simConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.LED.Driver = "sim"
	cfg.LED.Cadence = time.Millisecond
	cfg.Display.Driver = "sim"
	cfg.Search.BaseURL = baseURL
	cfg.Search.Timeout = time.Second
	return cfg
}

func TestWithCoreEndToEnd(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"query":{"searchinfo":{"totalhits":1234567}}}`))
	}))
	defer srv.Close()

	var notified bytes.Buffer
	err := WithCore(context.Background(), simConfig(srv.URL), Options{Notify: &notified, Log: zerolog.Nop()},
		func(ctx context.Context, c *Core) error {
			done := make(chan error, 1)
			go func() {
				_, err := c.Searcher.Search(ctx, "wiki")
				done <- err
			}()
			assert.Eventually(t, func() bool { return c.Searcher.Phase() == Searching }, time.Second, time.Millisecond)
			time.Sleep(10 * time.Millisecond)
			close(release)
			return <-done
		})
	require.NoError(t, err)
	assert.Empty(t, notified.String())
}

func TestSimDriversShowStartupAndResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"searchinfo":{"totalhits":42}}}`))
	}))
	defer srv.Close()

	var texts []string
	var frames []model.Frame
	cfg := simConfig(srv.URL)

	strip := led.NewSim(cfg.LED.Count, func(f model.Frame, _ uint8) { frames = append(frames, f) })
	disp := segment.NewSim(func(s string) { texts = append(texts, s) })

	c := &Core{log: zerolog.Nop()}
	var err error
	c.Progress, c.Result, err = openWith(strip, disp, cfg, zerolog.Nop())
	require.NoError(t, err)
	c.Searcher = &Searcher{Progress: c.Progress, Results: c.Result, Client: searchClient(cfg), Log: zerolog.Nop()}

	assert.Equal(t, "GOOD", disp.Text())
	_, err = c.Searcher.Search(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "  42", disp.Text())
	assert.True(t, strip.Last().IsBlank())
	assert.Equal(t, uint8(1), strip.Brightness())

	c.Close()
	c.Close()
	assert.Equal(t, "", disp.Text(), "display switched off")
	assert.True(t, frames[len(frames)-1].IsBlank())
}

func TestInitCoreRejectsInvalidConfig(t *testing.T) {
	cfg := simConfig("http://127.0.0.1:0")
	cfg.LED.Count = 0
	_, err := InitCore(cfg, Options{Log: zerolog.Nop()})
	assert.Error(t, err)
}

func TestWithCoreClosesOnError(t *testing.T) {
	cfg := simConfig("http://127.0.0.1:0")
	var core *Core
	err := WithCore(context.Background(), cfg, Options{Log: zerolog.Nop()}, func(ctx context.Context, c *Core) error {
		core = c
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, core.Progress.Stop(), "closed indicator is inert")
	assert.NoError(t, core.Result.Render(1), "closed display is inert")
}

func TestOpenStripAndDisplayUnknown(t *testing.T) {
	_, err := OpenStrip(config.LED{Driver: "pwm", Count: 7}, nil)
	assert.Error(t, err)
	_, err = OpenDisplay(config.Display{Driver: "lcd"}, nil, zerolog.Nop())
	assert.Error(t, err)
}
