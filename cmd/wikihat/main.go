package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/wikihat/internal/app"
	"github.com/coreman2200/wikihat/internal/config"
	"github.com/coreman2200/wikihat/internal/ws"
)

// globalFlags are shared by every subcommand. Flags that were set on the
// command line win over config.yaml; the rest only supply defaults.
type globalFlags struct {
	configPath    string
	logLevel      string
	ledDriver     string
	ledCount      int
	displayDriver string
	previewAddr   string
	baseURL       string
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		if alreadyReported(err) {
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("wikihat")
	}
}

// reportedError marks a failure the user has already been shown, so main
// exits non-zero without logging it again.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func alreadyReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}
	def := config.Default()

	cmd := &cobra.Command{
		Use:           "wikihat",
		Short:         "Look up Wikipedia hit counts on a Rainbow HAT",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "config.yaml", "path to config.yaml")
	pf.StringVar(&g.logLevel, "log-level", def.Log.Level, "trace | debug | info | warn | error")
	pf.StringVar(&g.ledDriver, "led-driver", def.LED.Driver, "apa102 | nrzled | console | sim")
	pf.IntVar(&g.ledCount, "led-count", def.LED.Count, "number of cells on the strip")
	pf.StringVar(&g.displayDriver, "display-driver", def.Display.Driver, "ht16k33 | console | sim")
	pf.StringVar(&g.previewAddr, "preview-addr", "", "serve the websocket preview on this address, e.g. :8080")
	pf.StringVar(&g.baseURL, "base-url", def.Search.BaseURL, "MediaWiki api.php endpoint")

	cmd.AddCommand(
		newSearchCommand(g),
		newReplCommand(g),
		newSelftestCommand(g),
		newConfigCommand(g),
	)
	return cmd
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist, then applies any flags the user set explicitly.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		log.Debug().Str("path", g.configPath).Msg("no config file; using defaults")
		cfg = config.Default()
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("led-driver") {
		cfg.LED.Driver = g.ledDriver
	}
	if flags.Changed("led-count") {
		cfg.LED.Count = g.ledCount
	}
	if flags.Changed("display-driver") {
		cfg.Display.Driver = g.displayDriver
	}
	if flags.Changed("preview-addr") {
		cfg.Preview.Addr = g.previewAddr
	}
	if flags.Changed("base-url") {
		cfg.Search.BaseURL = g.baseURL
	}

	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)
	return cfg, cfg.Validate()
}

// startPreview serves the websocket mirror of the sim drivers. The
// returned func shuts the server down.
func startPreview(addr string) (*ws.State, func()) {
	state := ws.NewState()
	srv := &http.Server{
		Addr:         addr,
		Handler:      state.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("preview server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("preview server")
		}
	}()
	return state, func() { _ = srv.Close() }
}

// withCore loads the config, opens the peripherals and runs fn.
func withCore(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, c *app.Core) error) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}
	o := app.Options{Notify: cmd.ErrOrStderr(), Log: log.Logger}
	if cfg.Preview.Addr != "" {
		state, shutdown := startPreview(cfg.Preview.Addr)
		defer shutdown()
		o.Preview = state
	}
	return app.WithCore(cmd.Context(), cfg, o, fn)
}
