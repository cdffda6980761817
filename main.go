// Package main provides the urlguard binary: a heuristic URL risk scanner
// usable from the command line or as an HTTP service.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gokaycavdar/go-urlguard/pkg/api"
	"github.com/gokaycavdar/go-urlguard/pkg/config"
	"github.com/gokaycavdar/go-urlguard/pkg/engine"
	"github.com/gokaycavdar/go-urlguard/pkg/geoip"
	"github.com/gokaycavdar/go-urlguard/pkg/metrics"
	"github.com/gokaycavdar/go-urlguard/pkg/rules"
	"github.com/gokaycavdar/go-urlguard/pkg/storage"
)

const (
	Version = "0.1.0"
	appName = "urlguard"
)

func main() {
	cmd, err := rootCmd()
	if err == nil {
		err = cmd.Execute()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// rootCmd builds the command tree from the environment configuration.
func rootCmd() (*cobra.Command, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Heuristic URL threat scanner",
		Long: `urlguard scores URLs for phishing and malware risk using a fixed
battery of structural, lexical, encoding and entropy signals.

No network access is performed: the verdict depends only on the URL text
and the signal catalog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			slog.SetDefault(config.NewLogger(os.Stderr, cfg.LogLevel))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML signal catalog override file")
	cmd.PersistentFlags().StringVar(&cfg.DefaultScheme, "default-scheme", cfg.DefaultScheme, "Scheme prepended to input without one (e.g. https)")

	cmd.AddCommand(serveCmd(cfg), scanCmd(cfg), signalsCmd(cfg))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (catalog %s)\n", appName, Version, rules.DefaultVersion)
		},
	})

	return cmd, nil
}

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scan service",
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}

			opts := []api.Option{
				api.WithCache(storage.NewMemoryCache(cfg.CacheSize)),
				api.WithMetrics(metrics.New()),
				api.WithLogger(slog.Default()),
				api.WithDefaultScheme(cfg.DefaultScheme),
			}
			if cfg.GeoIPEnabled() {
				geo, err := geoip.NewService(cfg.GeoCityDB, cfg.GeoASNDB)
				if err != nil {
					return fmt.Errorf("init geoip: %w", err)
				}
				defer geo.Close()
				opts = append(opts, api.WithLocator(geo))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			slog.Info("urlguard ready",
				"version", Version,
				"catalog", guard.CatalogVersion(),
				"signals", len(guard.Rules()),
				"geoip", cfg.GeoIPEnabled())

			return api.NewServer(guard, opts...).ListenAndServe(ctx, cfg.HTTPAddr)
		},
	}

	cmd.Flags().StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	cmd.Flags().IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "Result cache entries (0 disables)")
	cmd.Flags().StringVar(&cfg.GeoCityDB, "geoip-city", cfg.GeoCityDB, "GeoLite2 City .mmdb path")
	cmd.Flags().StringVar(&cfg.GeoASNDB, "geoip-asn", cfg.GeoASNDB, "GeoLite2 ASN .mmdb path")
	return cmd
}

func scanCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Score URLs given as arguments or one per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}
			server := api.NewServer(guard,
				api.WithCache(storage.NewMemoryCache(0)),
				api.WithDefaultScheme(cfg.DefaultScheme))

			inputs := args
			if len(inputs) == 0 {
				inputs, err = readLines(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			for _, raw := range inputs {
				report, err := server.Scan(raw)
				if err != nil {
					slog.Warn("skipping input", "input", raw, "error", err)
					continue
				}
				if asJSON {
					if err := enc.Encode(report); err != nil {
						return fmt.Errorf("encode report: %w", err)
					}
					continue
				}
				printReport(out, report)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON reports")
	return cmd
}

func signalsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List the signal catalog in evaluation order",
		RunE: func(cmd *cobra.Command, args []string) error {
			guard, err := newGuard(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog %s\n\n", guard.CatalogVersion())
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SIGNAL\tWEIGHT\tDESCRIPTION")
			for _, row := range rules.Describe(guard.Rules()) {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", row.Name, row.Weight, row.Description)
			}
			return tw.Flush()
		},
	}
}

func newGuard(cfg *config.Config) (*engine.URLGuard, error) {
	catalog := rules.Default()
	if cfg.CatalogPath != "" {
		var err error
		catalog, err = rules.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		slog.Debug("catalog loaded", "path", cfg.CatalogPath, "version", catalog.Version)
	}
	return engine.New(engine.WithCatalog(catalog), engine.WithLogger(slog.Default())), nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func printReport(w io.Writer, r *api.Report) {
	fmt.Fprintf(w, "URL:         %s\n", r.URL)
	fmt.Fprintf(w, "Score:       %d\n", r.Score)
	fmt.Fprintf(w, "Probability: %d%%\n", r.Probability)
	fmt.Fprintf(w, "Verdict:     %s\n", r.VerdictLabel)
	for _, s := range r.Signals {
		fmt.Fprintf(w, "  +%-3d %s\n", s.Weight, s.Name)
	}
	fmt.Fprintf(w, "Case ID:     %s  Generated: %s\n\n", r.CaseID, r.GeneratedAt)
}
