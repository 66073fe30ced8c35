package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"webloom/internal/answer"
	"webloom/internal/auth"
	"webloom/internal/capture"
	"webloom/internal/channel"
	"webloom/internal/config"
	"webloom/internal/domain"
	"webloom/internal/ingest"
	"webloom/internal/model"
	"webloom/internal/server"
	"webloom/internal/store"

	"github.com/spf13/cobra"
)

var (
	version    = "1.0.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:     "webloom",
		Short:   "WebLoom: personal web knowledge base with AI answering",
		Long:    "WebLoom stores the text of web pages you capture and answers natural-language questions about them using a remote language model.",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.webloom/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(botCmd())
	root.AddCommand(captureCmd())
	root.AddCommand(importCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults when missing.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Expand(config.Defaults())
	}
	return cfg
}

// applyLogLevel rebuilds the global logger at the configured level.
func applyLogLevel(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	dbPath := cfg.Database.Path
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	return store.NewSQLiteStore(dbPath, logger)
}

func buildPipeline(cfg *config.Config, st *store.SQLiteStore) *answer.Pipeline {
	client := model.NewFactory(cfg, logger).Build()
	if client == nil {
		logger.Warn("no usable model configured, answers fall back to reference lists")
	}
	return answer.NewPipeline(answer.PipelineConfig{
		Store:           st,
		Client:          client,
		SearchLimit:     cfg.Answer.SearchLimit,
		RecentLimit:     cfg.Answer.RecentFallbackLimit,
		SnippetLength:   cfg.Answer.SnippetLength,
		PreviewLength:   cfg.Answer.ContextPreviewLength,
		GenerateTimeout: time.Duration(cfg.Answer.GenerateTimeoutSeconds) * time.Second,
		Logger:          logger,
	})
}

// resolveOwner maps an account email to a document scope. An empty email
// means the unowned scope.
func resolveOwner(ctx context.Context, st *store.SQLiteStore, email string) (domain.OwnerFilter, error) {
	if email == "" {
		return domain.Unowned(), nil
	}
	user, err := st.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.OwnerFilter{}, fmt.Errorf("look up account: %w", err)
	}
	if user == nil {
		return domain.OwnerFilter{}, fmt.Errorf("no account with email %s", email)
	}
	return domain.OwnerOf(user.ID), nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			// The saved file keeps the ${VAR} placeholders; expand before
			// touching the filesystem.
			config.Expand(cfg)
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "database", cfg.Database.Path)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Serves the capture and question-answering API used by the browser extension. Press Ctrl+C to stop.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			applyLogLevel(cfg)
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			srv := server.New(server.Config{
				Server:   cfg.Server,
				Metrics:  cfg.Metrics,
				Store:    st,
				Auth:     auth.NewEngine(cfg.Auth, st, logger),
				Pipeline: buildPipeline(cfg, st),
				Ingest:   ingest.NewService(st, cfg.Capture.MaxContentLength, logger),
				Logger:   logger,
			})
			return srv.Start(ctx)
		},
	}
}

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram question bot",
		Long:  "Answers questions from Telegram against the knowledge base. Requires telegram.enabled and a bot token in the config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			applyLogLevel(cfg)
			if !cfg.Telegram.Enabled || cfg.Telegram.Token == "" {
				return fmt.Errorf("telegram bot is not configured; set telegram.enabled and telegram.token")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			owner := domain.AllOwners()
			if cfg.Telegram.OwnerEmail != "" {
				owner, err = resolveOwner(ctx, st, cfg.Telegram.OwnerEmail)
				if err != nil {
					return err
				}
			}

			bot := channel.NewTelegram(channel.TelegramOptions{
				Token:     cfg.Telegram.Token,
				AllowFrom: cfg.Telegram.AllowFrom,
				Owner:     owner,
				Pipeline:  buildPipeline(cfg, st),
				Store:     st,
				Logger:    logger,
			})
			return bot.Start(ctx)
		},
	}
}

func captureCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "capture [url...]",
		Short: "Capture pages with headless Chrome and store them",
		Long:  "Fetches each URL in headless Chrome, extracts the readable text the same way the browser extension does, and stores it in the knowledge base.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			applyLogLevel(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			owner, err := resolveOwner(ctx, st, email)
			if err != nil {
				return err
			}

			capturer := capture.NewCapturer(capture.CapturerConfig{
				ProfileDir: cfg.Capture.ProfileDir,
				Headless:   cfg.Capture.Headless,
				Logger:     logger,
			})
			svc := ingest.NewService(st, cfg.Capture.MaxContentLength, logger)

			for _, url := range args {
				page, err := capturer.Capture(ctx, url)
				if err != nil {
					return err
				}
				res, err := svc.Ingest(ctx, ingest.Input{
					URL:        page.URL,
					Title:      page.Title,
					Content:    page.Content,
					CapturedAt: page.CapturedAt,
				}, owner)
				if err != nil {
					return fmt.Errorf("store %s: %w", url, err)
				}
				logger.Info("page captured",
					"id", res.ID,
					"url", res.URL,
					"title", res.Title,
					"content_length", res.ContentLength,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "store captures under this account's email")
	return cmd
}

func importCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Bulk import page captures from a YAML file",
		Long:  "Imports a YAML list of {url, title, content, timestamp} entries into the knowledge base.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			applyLogLevel(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			owner, err := resolveOwner(ctx, st, email)
			if err != nil {
				return err
			}

			svc := ingest.NewService(st, cfg.Capture.MaxContentLength, logger)
			results, err := svc.ImportFile(ctx, args[0], owner)
			if err != nil {
				return err
			}
			logger.Info("import complete", "file", args[0], "entries", len(results))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "store imports under this account's email")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show knowledge base and model status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Expand(config.Defaults())
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}

			ctx := context.Background()

			st, err := openStore(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			count, err := st.Count(ctx, domain.AllOwners())
			if err != nil {
				return fmt.Errorf("count documents: %w", err)
			}
			logger.Info("knowledge base", "path", cfg.Database.Path, "documents", count)

			client := model.NewFactory(cfg, logger).Build()
			if client == nil {
				logger.Info("model", "configured", false)
				return nil
			}
			healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := client.Healthy(healthCtx); err != nil {
				logger.Info("model", "name", client.Name(), "healthy", false, "err", err)
			} else {
				logger.Info("model", "name", client.Name(), "healthy", true)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. answer.searchLimit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. general.defaultModel gemini)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
