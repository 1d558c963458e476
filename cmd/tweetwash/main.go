// Package main is the entry point for the tweetwash binary.
// It provides a CLI for sanitising tweet JSON documents in batch mode.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tweetwash/tweetwash/pkg/config"
	"github.com/tweetwash/tweetwash/pkg/domain"
	"github.com/tweetwash/tweetwash/pkg/logging"
	"github.com/tweetwash/tweetwash/pkg/sanitise"
	"github.com/tweetwash/tweetwash/pkg/stream"
	"github.com/tweetwash/tweetwash/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for tweetwash
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tweetwash",
		Short: "Sanitise tweet JSON, keeping only allow-listed fields",
		Long: `Reads one tweet JSON document per line from stdin (or --input), removes
every field not on the keep list, normalises the extended-tweet text into
the "text" key, and writes one JSON document per line to stdout (or
--output), preserving input order. A malformed line produces one
error-object line and the batch continues; something like a simple version
of jq, but for tweet field retention.

Example:
  tweetwash -k 'id,user.screen_name,text,full_text' < tweets.jsonl > clean.jsonl`,
		RunE:          runSanitise,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringP("keep", "k", "", "Fields to keep (comma separated)")
	rootCmd.Flags().String("keep-file", "", "File of fields to keep (comma separated or one per line, # comments)")
	rootCmd.Flags().Bool("exclude-media", false, "Remove entities.media from the keep list")
	rootCmd.Flags().Bool("watch", false, "Rebuild the keep list when --keep-file changes on disk")
	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("input", "i", "", "Input file (defaults to stdin)")
	rootCmd.Flags().StringP("output", "o", "", "Output file (defaults to stdout)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("pretty", false, "Human-readable console logging")
	rootCmd.Flags().Bool("print-fields", false, "Print the resolved keep-list tree and exit")
	rootCmd.Flags().String("metrics-addr", "", "Expose prometheus metrics on this address")
	rootCmd.Flags().String("otlp-endpoint", "", "OTLP gRPC endpoint for trace export")

	return rootCmd
}

// resolveConfig merges the optional YAML config file with flag overrides.
// Flags always win over the file.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if keep, _ := flags.GetString("keep"); keep != "" {
		cfg.Fields.Keep = domain.ParseCommaList(keep)
		cfg.Fields.KeepFile = ""
	}
	if keepFile, _ := flags.GetString("keep-file"); keepFile != "" {
		cfg.Fields.KeepFile = keepFile
		// An inline keep list from the config file would otherwise take
		// precedence inside ResolveKeepPaths.
		cfg.Fields.Keep = nil
	}
	if flags.Changed("exclude-media") {
		cfg.Fields.ExcludeMedia, _ = flags.GetBool("exclude-media")
	}
	if flags.Changed("watch") {
		cfg.Fields.Watch, _ = flags.GetBool("watch")
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if flags.Changed("pretty") {
		cfg.Logging.Pretty, _ = flags.GetBool("pretty")
	}
	if addr, _ := flags.GetString("metrics-addr"); addr != "" {
		cfg.Telemetry.MetricsAddress = addr
	}
	if endpoint, _ := flags.GetString("otlp-endpoint"); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSanitise(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetupLogger(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})

	paths, err := cfg.ResolveKeepPaths()
	if err != nil {
		return err
	}
	tree := sanitise.Build(paths)

	if printFields, _ := cmd.Flags().GetBool("print-fields"); printFields {
		fmt.Fprint(cmd.OutOrStdout(), tree.String())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: "tweetwash",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Environment: cfg.Telemetry.Environment,
		Insecure:    cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry setup failed: %w", err)
	}

	var metrics *telemetry.StreamMetrics
	shutdownMetrics := func(context.Context) error { return nil }
	if cfg.Telemetry.MetricsAddress != "" {
		registry := prometheus.NewRegistry()
		metrics = telemetry.NewStreamMetrics(registry)
		shutdownMetrics = telemetry.ServeMetrics(cfg.Telemetry.MetricsAddress, registry)
	}

	processor := stream.NewProcessor(sanitise.New(tree), metrics)

	if cfg.Fields.Watch && len(cfg.Fields.Keep) == 0 {
		provider, err := config.NewFieldFileProvider(cfg.Fields.KeepFile, cfg.Fields.ExcludeMedia)
		if err != nil {
			return fmt.Errorf("keep-file watch failed: %w", err)
		}
		defer provider.Close()

		updates := provider.Subscribe()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case snap, ok := <-updates:
					if !ok {
						return
					}
					processor.Swap(sanitise.New(snap.Tree))
				}
			}
		}()
	}

	in, out, cleanup, err := openStreams(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := processor.Run(ctx, in, out)
	switch {
	case errors.Is(err, context.Canceled):
		log.Info().Int("documents", stats.Documents).Msg("Interrupted, shutting down")
	case err != nil:
		return fmt.Errorf("batch run failed: %w", err)
	default:
		log.Info().Int("documents", stats.Documents).Int("parse_errors", stats.ParseErrors).Msg("Batch complete")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownMetrics(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown error")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Trace exporter shutdown error")
	}
	return nil
}

// openStreams resolves --input/--output to files or the standard streams.
func openStreams(cmd *cobra.Command) (io.Reader, io.Writer, func(), error) {
	var (
		in      io.Reader = cmd.InOrStdin()
		out     io.Writer = cmd.OutOrStdout()
		closers []io.Closer
	)

	if path, _ := cmd.Flags().GetString("input"); path != "" {
		f, err := os.Open(path) // #nosec G304 -- path comes from the operator
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open input: %w", err)
		}
		in = f
		closers = append(closers, f)
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path) // #nosec G304 -- path comes from the operator
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, nil, nil, fmt.Errorf("open output: %w", err)
		}
		out = f
		closers = append(closers, f)
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Error().Err(err).Msg("Stream close error")
			}
		}
	}
	return in, out, cleanup, nil
}
