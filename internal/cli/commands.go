package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Darthmonkey/tunefetcherai/internal/catalog"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
	"github.com/Darthmonkey/tunefetcherai/internal/report"
	"github.com/Darthmonkey/tunefetcherai/internal/server"
)

// ErrBatchFailed is returned when a batch produced no archive.
var ErrBatchFailed = errors.New("batch failed")

func buildServeCommand(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the download, batch, archive, search and lookup endpoints until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr(), true, nil)
			if err != nil {
				return err
			}
			if addr != "" {
				a.settings.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.settings, server.Options{
				Manager:  a.manager,
				Reporter: report.NewReporter(report.NewArchiveStore(a.logger), a.logger),
				Catalog:  a.catalog,
				Resolver: a.resolver,
				Metrics:  a.metrics,
				Logger:   a.logger,
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func buildFetchCommand(opts *rootOptions) *cobra.Command {
	var name, outDir string

	cmd := &cobra.Command{
		Use:   "fetch <locator>",
		Short: "Fetch a single track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			a, err := newApp(opts, cmd.ErrOrStderr(), false, progressPrinter(out, opts.verbose))
			if err != nil {
				return err
			}

			single, err := a.manager.FetchSingle(cmd.Context(), model.TrackRequest{
				DisplayName:   name,
				SourceLocator: args[0],
			})
			if err != nil {
				return err
			}
			if !single.OK() {
				return fmt.Errorf("fetch %s: %s", args[0], single.Outcome.ErrorDetail)
			}
			defer single.Release()

			dest := filepath.Join(outDir, single.FileName)
			if err := ioutils.CopyFile(cmd.Context(), single.FilePath, dest); err != nil {
				return fmt.Errorf("save track: %w", err)
			}
			fmt.Fprintf(out, "Saved %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "track", "display name used for the file")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	return cmd
}

func buildBatchCommand(opts *rootOptions) *cobra.Command {
	var outDir, artist, album, year string

	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Fetch a batch of tracks into one archive",
		Long: `Fetch every track of a batch and write the archive to the output directory.

The batch is read from a JSON or YAML file, or built by looking up an album
on MusicBrainz (--artist, --album) and resolving each track to a source.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (artist == "" || album == "") {
				return errors.New("a batch file or --artist and --album are required")
			}

			out := cmd.OutOrStdout()
			a, err := newApp(opts, cmd.ErrOrStderr(), false, progressPrinter(out, opts.verbose))
			if err != nil {
				return err
			}

			var requests []model.TrackRequest
			if len(args) == 1 {
				b, err := download.LoadBatchFile(args[0])
				if err != nil {
					return err
				}
				requests = b.Requests()
			} else {
				requests, err = planAlbum(cmd.Context(), a, cmd, catalog.Query{Artist: artist, Album: album, Year: year})
				if err != nil {
					return err
				}
			}

			result, err := a.manager.RunBatch(cmd.Context(), requests)
			if err != nil {
				return err
			}
			defer result.Release()

			for _, f := range result.Failures {
				fmt.Fprintf(out, "✗ %s: %s\n", f.DisplayName, f.ErrorDetail)
			}
			if result.Status != download.StatusCompleted {
				return fmt.Errorf("%w: %s", ErrBatchFailed, download.Summary(result))
			}

			name := result.GroupLabel
			if name == "" {
				name = report.DefaultArchiveName
			}
			dest := filepath.Join(outDir, model.SanitizeFileName(name)+".zip")
			if err := ioutils.CopyFile(cmd.Context(), result.ArchivePath, dest); err != nil {
				return fmt.Errorf("save archive: %w", err)
			}
			fmt.Fprintf(out, "%s\nSaved %s\n", download.Summary(result), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVar(&artist, "artist", "", "artist to look up")
	cmd.Flags().StringVar(&album, "album", "", "album to look up")
	cmd.Flags().StringVar(&year, "year", "", "release year (optional)")
	return cmd
}

// planAlbum looks up an album and resolves each track to a locator.
// Tracks that cannot be resolved are reported and left out.
func planAlbum(ctx context.Context, a *app, cmd *cobra.Command, q catalog.Query) ([]model.TrackRequest, error) {
	out := cmd.OutOrStdout()

	rel, err := a.catalog.Lookup(ctx, q)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "› Found %q with %d tracks\n", rel.Title, len(rel.Tracks))

	locators := make(map[string]string, len(rel.Tracks))
	for _, t := range rel.Tracks {
		loc, err := a.resolver.Search(ctx, t.Artist+" "+t.Name)
		if err != nil {
			fmt.Fprintf(out, "! No source for %s: %v\n", t.Name, err)
			continue
		}
		locators[t.ID] = loc
	}

	requests := catalog.Requests(rel, locators)
	if len(requests) == 0 {
		return nil, fmt.Errorf("no track of %q could be resolved", rel.Title)
	}
	return requests, nil
}

func buildSearchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>...",
		Short: "Resolve a track query to a source locator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr(), false, nil)
			if err != nil {
				return err
			}
			loc, err := a.resolver.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), loc)
			return nil
		},
	}
}

func buildLookupCommand(opts *rootOptions) *cobra.Command {
	var q catalog.Query

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up an album's track list on MusicBrainz",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd.ErrOrStderr(), false, nil)
			if err != nil {
				return err
			}
			rel, err := a.catalog.Lookup(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d tracks)\n", rel.Title, len(rel.Tracks))
			for _, t := range rel.Tracks {
				fmt.Fprintf(out, "%2d. %s - %s [%d:%02d]\n", t.TrackNumber, t.Artist, t.Name, t.DurationSeconds/60, t.DurationSeconds%60)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&q.Album, "album", "", "album name")
	cmd.Flags().StringVar(&q.Year, "year", "", "release year (optional)")
	cmd.MarkFlagRequired("artist")
	cmd.MarkFlagRequired("album")
	return cmd
}
