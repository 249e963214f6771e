package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/logging"
	"github.com/JonMunkholm/doorsync/internal/output"
	"github.com/JonMunkholm/doorsync/internal/source"
)

const (
	Version = "0.1.0"
	appName = "doorsync"
)

// syncOptions are the command-line overrides for one batch run. Empty
// values fall back to the environment and the profile.
type syncOptions struct {
	profile  string
	out      string
	format   string
	logLevel string
	dryRun   bool
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Build a DoorKing import file from the directory and code tables",
		Long: `doorsync reads the household directory, the entry code assignments and
the deleted codes from the source named in the sync profile, reconciles them,
and writes the DoorKing Account Manager import document.

The profile path comes from --profile, then DOORSYNC_PROFILE, then
~/.doorsync.yaml. Nothing is written when any table row is invalid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), opts, stdout, stderr)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Sync profile path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default from profile)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: csv or xlsx (default from profile)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Write the document to stdout instead of the output file")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the sync profile without fetching any table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(opts, stderr)
			if err != nil {
				return err
			}
			p, err := config.LoadProfile(profilePath(opts, cfg))
			if err != nil {
				return err
			}
			settings, err := p.Settings()
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "profile ok: account %q, %s source\n", p.AccountName, p.Source.Kind)
			for _, t := range settings.SecurityLevels.Unmapped() {
				fmt.Fprintf(stdout, "warning: no security level for %s; codes of that type will be rejected\n", t)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "headers",
		Short: "Print the import document header line",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, core.HeaderLine())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		},
	})

	return cmd
}

// setup loads the environment configuration and configures logging on w.
func setup(opts syncOptions, w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logging.SetupWriter(w, level, cfg.Logging.Format)
	return cfg, nil
}

func profilePath(opts syncOptions, cfg *config.Config) string {
	if opts.profile != "" {
		return opts.profile
	}
	return cfg.Sync.ProfilePath
}

// runSync fetches, reconciles and writes one batch.
func runSync(ctx context.Context, opts syncOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := setup(opts, stderr)
	if err != nil {
		return err
	}
	profile, err := config.LoadProfile(profilePath(opts, cfg))
	if err != nil {
		return err
	}
	settings, err := profile.Settings()
	if err != nil {
		return err
	}

	formatName := profile.Output.Format
	if opts.format != "" {
		formatName = opts.format
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Upload.Timeout)
	defer cancel()

	var pool *pgxpool.Pool
	if profile.Source.Kind == config.SourcePostgres {
		if cfg.Database.URL == "" {
			return errors.New("postgres source requires DATABASE_URL")
		}
		pool, err = source.NewPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	src, err := source.New(profile.Source, pool)
	if err != nil {
		return err
	}
	tables, err := src.Fetch(ctx)
	if err != nil {
		return err
	}

	svc := core.NewService(settings, core.ServiceConfig{MaxConcurrent: 1})
	result, err := svc.Run(ctx, tables)
	if err != nil {
		return err
	}

	if opts.dryRun {
		return output.Write(stdout, format, settings.AccountName, result.Entries)
	}

	path := profile.Output.Path
	if opts.out != "" {
		path = opts.out
	}
	path, err = config.ExpandHome(path)
	if err != nil {
		return err
	}
	if err := output.WriteFile(path, format, settings.AccountName, result.Entries); err != nil {
		return err
	}

	logging.WithFields(ctx, "run_id", result.RunID).Info("import file written",
		"path", path,
		"format", string(format),
		"entries", result.Summary.Entries,
	)
	return nil
}
