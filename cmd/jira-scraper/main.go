// Command jira-scraper harvests issues from a Jira instance into a local
// SQLite corpus and exports them as JSONL for language-model training.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/internal/config"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/client"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/export"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/jira"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/logging"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/pagination"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/scraper"
	"github.com/garv999/web-scraping-tutor-assignment-apache-jira-llm-corpus/pkg/storage"
)

var (
	configPath string
	baseURL    string
	dbPath     string
	redisAddr  string
	rateLimit  int
	rateWindow time.Duration
	logLevel   string
	logPretty  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "jira-scraper",
		Short:         "Incremental Jira issue harvester for LLM corpus building",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Jira base URL")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address for the response cache (disabled when empty)")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "Max request starts per rate window")
	rootCmd.PersistentFlags().DurationVar(&rateWindow, "rate-window", 0, "Rolling rate limit window")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(scrapeCmd(), statusCmd(), exportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig merges the YAML/env config with any flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = baseURL
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = dbPath
	}
	if cmd.Flags().Changed("redis") {
		cfg.RedisAddr = redisAddr
	}
	if cmd.Flags().Changed("rate-limit") {
		cfg.RateLimit = rateLimit
	}
	if cmd.Flags().Changed("rate-window") {
		cfg.RateWindow = rateWindow
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.LogPretty = logPretty
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})
}

func buildClient(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	clientCfg := client.DefaultConfig(cfg.BaseURL)
	clientCfg.RateLimit = cfg.RateLimit
	clientCfg.RateWindow = cfg.RateWindow

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		clientCfg.Redis = redisClient
		clientCfg.CacheTTL = cfg.CacheTTL
	}

	return client.New(clientCfg)
}

func scrapeCmd() *cobra.Command {
	var (
		restart     bool
		maxIssues   int
		pageSize    int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "scrape PROJECT [PROJECT...]",
		Short: "Scrape one or more Jira projects into the local database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-issues") {
				cfg.MaxIssues = maxIssues
			}
			if cmd.Flags().Changed("page-size") {
				cfg.PageSize = pageSize
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			setupLogging(cfg)
			logger := logging.NewLogger("main")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if metricsAddr != "" {
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						logger.Error().Err(err).Msg("metrics server failed")
					}
				}()
				logger.Info().Str("addr", metricsAddr).Msg("serving metrics")
			}

			apiClient, err := buildClient(ctx, cfg)
			if err != nil {
				return err
			}

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			api := jira.NewAPI(apiClient)
			fetcher := pagination.NewFetcher(api)
			ing := scraper.New(fetcher, api, db)

			results := ing.Ingest(ctx, args, scraper.Options{
				Resume:    !restart,
				MaxIssues: cfg.MaxIssues,
				PageSize:  cfg.PageSize,
			})

			fmt.Print(formatSummary(results))

			stats := apiClient.Stats()
			logger.Info().
				Int64("requests", stats.Requests).
				Int64("errors", stats.Errors).
				Int64("retries", stats.Retries).
				Msg("request statistics")

			for _, r := range results {
				if r.Err != nil {
					return fmt.Errorf("%d of %d projects failed", countFailed(results), len(results))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&restart, "restart", false, "Discard existing checkpoints and scrape from the beginning")
	cmd.Flags().IntVar(&maxIssues, "max-issues", 0, "Stop after ingesting this many issues per project (0 = unlimited)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Issues requested per search page")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (disabled when empty)")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status PROJECT",
		Short: "Show the scrape checkpoint of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			cp, err := db.GetCheckpoint(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if cp == nil {
				fmt.Printf("No checkpoint for project %s\n", args[0])
				return nil
			}

			data, _ := yaml.Marshal(cp)
			fmt.Print(string(data))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		out        string
		projectKey string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored issues as a JSONL corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			setupLogging(cfg)

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			n, err := export.NewExporter(db).Export(cmd.Context(), w, projectKey)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Exported %d records\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (stdout when empty)")
	cmd.Flags().StringVar(&projectKey, "project", "", "Export only this project (all when empty)")
	return cmd
}
