// MindBridge is a mental health support orchestrator: it routes people
// through intake, crisis assessment, and therapist matching over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mindbridge-ai/MindBridge/internal/api"
	"github.com/mindbridge-ai/MindBridge/internal/config"
	"github.com/mindbridge-ai/MindBridge/internal/flow"
	"github.com/mindbridge-ai/MindBridge/internal/genai"
	"github.com/mindbridge-ai/MindBridge/internal/match"
	"github.com/mindbridge-ai/MindBridge/internal/messaging"
	"github.com/mindbridge-ai/MindBridge/internal/search"
	"github.com/mindbridge-ai/MindBridge/internal/store"
	"github.com/mindbridge-ai/MindBridge/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MindBridge state data
	DefaultStateDir = "/var/lib/mindbridge"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "mindbridge.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	envConfig := loadEnvironmentConfig()
	flags := parseCommandLineFlags(envConfig)

	initializeLogger(*flags.logLevel)

	cfg := loadConfigFile(*flags.configPath)
	applyConfigDefaults(&flags, cfg)

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client, err := genai.NewClient(buildGenAIOptions(flags, cfg)...)
	if err != nil {
		slog.Error("Failed to initialize OpenAI client", "error", err)
		os.Exit(1)
	}

	searcher := buildSearcher(flags, cfg)
	msgService := buildMessagingService(flags, cfg)
	defer msgService.Stop()

	workflow := flow.NewWorkflow(
		flow.NewStoreBasedStateManager(st),
		flow.NewCoordinator(),
		flow.NewIntakeController(client),
		flow.NewCrisisController(client),
		flow.NewResourceController(client, st, match.NewEngine(), searcher, msgService),
		flow.NewSupportResourcesController(),
		flow.NewHabitSupportController(),
	)

	server := api.NewServer(workflow, st)

	// Shut the server down cleanly on SIGINT/SIGTERM.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("Received shutdown signal", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Bootstrapping MindBridge", "addr", *flags.apiAddr, "dsn_set", *flags.dbDSN != "")
	if err := server.Run(*flags.apiAddr); err != nil {
		slog.Error("MindBridge failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("MindBridge exited successfully")
}

// EnvConfig holds environment configuration
type EnvConfig struct {
	DatabaseDSN string
	StateDir    string
	OpenAIKey   string
	TavilyKey   string
	APIAddr     string
	LogLevel    string
}

// Flags holds command line flag values
type Flags struct {
	configPath *string
	stateDir   *string
	dbDSN      *string
	openaiKey  *string
	tavilyKey  *string
	apiAddr    *string
	logLevel   *string
	seedRoster *bool
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() EnvConfig {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	envConfig := EnvConfig{
		DatabaseDSN: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("MINDBRIDGE_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		TavilyKey:   os.Getenv("TAVILY_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}

	if envConfig.StateDir == "" {
		envConfig.StateDir = DefaultStateDir
	}
	if envConfig.APIAddr == "" {
		envConfig.APIAddr = DefaultAPIAddr
	}

	return envConfig
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(envConfig EnvConfig) Flags {
	flags := Flags{
		configPath: flag.String("config", "", "path to YAML config file"),
		stateDir:   flag.String("state-dir", envConfig.StateDir, "state directory for MindBridge data (overrides $MINDBRIDGE_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", envConfig.DatabaseDSN, "database DSN: a file path for SQLite or a postgres:// URL (overrides $DATABASE_URL)"),
		openaiKey:  flag.String("openai-api-key", envConfig.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		tavilyKey:  flag.String("tavily-api-key", envConfig.TavilyKey, "Tavily API key for directory search (overrides $TAVILY_API_KEY)"),
		apiAddr:    flag.String("api-addr", envConfig.APIAddr, "API server address (overrides $API_ADDR)"),
		logLevel:   flag.String("log-level", envConfig.LogLevel, "log level: debug, info, warn, error (overrides $LOG_LEVEL)"),
		seedRoster: flag.Bool("seed-roster", util.ParseBoolEnv("SEED_ROSTER", true), "seed the volunteer therapist roster on startup"),
	}
	flag.Parse()
	return flags
}

// loadConfigFile reads the optional YAML config. A missing -config flag
// means defaults only.
func loadConfigFile(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("Failed to load config file", "error", err, "path", path)
		os.Exit(1)
	}
	slog.Info("Loaded config file", "path", path)
	return cfg
}

// applyConfigDefaults fills flag values that were not set explicitly
// from the config file.
func applyConfigDefaults(flags *Flags, cfg *config.Config) {
	if *flags.dbDSN == "" && cfg.Database.DSN != "" {
		*flags.dbDSN = cfg.Database.DSN
	}
	if *flags.apiAddr == DefaultAPIAddr && cfg.Server.Addr != "" {
		*flags.apiAddr = cfg.Server.Addr
	}
	if *flags.logLevel == "" && cfg.Server.LogLevel != "" {
		*flags.logLevel = cfg.Server.LogLevel
	}
}

// buildStore selects the storage backend from the DSN. No DSN means a
// SQLite database under the state directory.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Info("No database DSN provided, using SQLite in state directory", "path", dsn)
	}

	var (
		st  store.Store
		err error
	)
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Info("Using PostgreSQL store", "dsn_set", true)
		st, err = store.NewPostgresStore(store.WithDSN(dsn))
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(dsn), store.DefaultDirPermissions); mkErr != nil {
			return nil, mkErr
		}
		slog.Info("Using SQLite store", "path", dsn)
		st, err = store.NewSQLiteStore(store.WithDSN(dsn))
	}
	if err != nil {
		return nil, err
	}

	if *flags.seedRoster {
		if seedErr := seedRosterIfEmpty(st); seedErr != nil {
			slog.Warn("Failed to seed therapist roster", "error", seedErr)
		}
	}
	return st, nil
}

// seedRosterIfEmpty inserts the volunteer roster into an empty store.
func seedRosterIfEmpty(st store.Store) error {
	stats, err := st.TherapistStats()
	if err != nil {
		return err
	}
	if stats.Total > 0 {
		return nil
	}
	for _, t := range store.SeedTherapists() {
		if _, err := st.AddTherapist(t); err != nil {
			return err
		}
	}
	slog.Info("Seeded volunteer therapist roster")
	return nil
}

// buildGenAIOptions constructs OpenAI client configuration options
func buildGenAIOptions(flags Flags, cfg *config.Config) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	if cfg.OpenAI.Model != "" {
		opts = append(opts, genai.WithModel(cfg.OpenAI.Model))
	}
	if cfg.OpenAI.Temperature != 0 {
		opts = append(opts, genai.WithTemperature(cfg.OpenAI.Temperature))
	}
	if cfg.OpenAI.MaxTokens != 0 {
		opts = append(opts, genai.WithMaxTokens(int64(cfg.OpenAI.MaxTokens)))
	}
	return opts
}

// buildSearcher wires the Tavily directory search when a key exists.
// Without one, directory search reports no results rather than failing.
func buildSearcher(flags Flags, cfg *config.Config) search.DirectorySearcher {
	if *flags.tavilyKey == "" && os.Getenv("TAVILY_API_KEY") == "" {
		slog.Info("No Tavily API key, external directory search disabled")
		return search.NoopSearcher{}
	}
	var opts []search.Option
	if *flags.tavilyKey != "" {
		opts = append(opts, search.WithAPIKey(*flags.tavilyKey))
	}
	if cfg.Tavily.BaseURL != "" {
		opts = append(opts, search.WithBaseURL(cfg.Tavily.BaseURL))
	}
	client, err := search.NewTavilyClient(opts...)
	if err != nil {
		slog.Warn("Failed to initialize Tavily client, directory search disabled", "error", err)
		return search.NoopSearcher{}
	}
	return client
}

// buildMessagingService wires Twilio SMS outreach when credentials
// exist, falling back to the in-memory recorder.
func buildMessagingService(flags Flags, cfg *config.Config) messaging.Service {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		slog.Info("No Twilio credentials, therapist outreach will be recorded in memory only")
		return messaging.NewInMemoryService()
	}
	var opts []messaging.Option
	if cfg.Twilio.FromNumber != "" {
		opts = append(opts, messaging.WithFromNumber(cfg.Twilio.FromNumber))
	}
	svc, err := messaging.NewTwilioService(opts...)
	if err != nil {
		slog.Warn("Failed to initialize Twilio service, falling back to in-memory outreach", "error", err)
		return messaging.NewInMemoryService()
	}
	return svc
}
