package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Darthmonkey/tunefetcherai/internal/catalog"
	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	httpclient "github.com/Darthmonkey/tunefetcherai/internal/http"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/metrics"
	"github.com/Darthmonkey/tunefetcherai/internal/resolve"
)

// Version is reported by --version.
var Version = "1.0.0"

type rootOptions struct {
	configFile string
	verbose    bool
}

// BuildCLI returns the tunefetch root command.
func BuildCLI() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "tunefetch",
		Short: "TuneFetcher: fetch audio tracks in batches and bundle them into archives",
		Long: `tunefetch acquires audio tracks through an external extractor, retries
failed fetches, and bundles every successful track of a batch into a single
zip archive grouped by album.

Common workflows:

  Run the HTTP API:
    tunefetch serve

  Fetch a batch described in a file:
    tunefetch batch tracks.yaml --out ~/Music

  Look up an album and fetch all of it:
    tunefetch batch --artist "The Beatles" --album "Abbey Road" --out ~/Music

  Resolve a single track:
    tunefetch search The Beatles Come Together`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show verbose output")

	rootCmd.AddCommand(buildServeCommand(opts))
	rootCmd.AddCommand(buildFetchCommand(opts))
	rootCmd.AddCommand(buildBatchCommand(opts))
	rootCmd.AddCommand(buildSearchCommand(opts))
	rootCmd.AddCommand(buildLookupCommand(opts))

	return rootCmd
}

// LoadSettings reads the config file (defaults when path is empty),
// applies TUNEFETCH_* overrides and validates the result.
func LoadSettings(path string) (*config.Settings, error) {
	settings := config.DefaultSettings()
	if path != "" {
		var err error
		settings, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := settings.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return settings, nil
}

// app is the wired service stack shared by the commands.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	metrics  *metrics.Collector
	http     *httpclient.Client
	manager  *download.Manager
	catalog  *catalog.Client
	resolver *resolve.Resolver
}

// newApp loads the settings and wires the stack. Commands other than
// serve log at warn level unless --verbose is set.
func newApp(opts *rootOptions, logOut io.Writer, server bool, onProgress func(download.ProgressEvent)) (*app, error) {
	settings, err := LoadSettings(opts.configFile)
	if err != nil {
		return nil, err
	}

	level := settings.LogLevel
	switch {
	case opts.verbose:
		level = "debug"
	case !server:
		level = "warn"
	}
	log := logger.NewWithWriter(logOut, level, settings.LogFormat)

	client := httpclient.NewClient(httpclient.WithUserAgent(settings.UserAgent))
	col := metrics.NewCollector()

	manager, err := download.NewManager(settings, download.Deps{
		HTTPClient: client,
		Metrics:    col,
		Logger:     log,
		OnProgress: onProgress,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		settings: settings,
		logger:   log,
		metrics:  col,
		http:     client,
		manager:  manager,
		catalog:  catalog.NewClient(client, settings.MusicBrainzURL).WithLogger(log),
		resolver: resolve.NewResolver(client, settings.YouTubeSearchURL),
	}, nil
}

// progressPrinter writes progress events as prefixed lines. Verbose
// events are dropped unless verbose is set.
func progressPrinter(w io.Writer, verbose bool) func(download.ProgressEvent) {
	var mu sync.Mutex
	return func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !verbose {
			return
		}

		prefix := "  "
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}

		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, prefix+event.Message)
	}
}
