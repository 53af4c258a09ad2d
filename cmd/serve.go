package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/erhandundarofficial/zerobait/config"
	"github.com/erhandundarofficial/zerobait/internal/analysis"
	"github.com/erhandundarofficial/zerobait/internal/api"
	"github.com/erhandundarofficial/zerobait/internal/narrative"
	"github.com/erhandundarofficial/zerobait/internal/providers"
	"github.com/erhandundarofficial/zerobait/internal/store"
)

// serveCmd is the cobra command that starts the zerobait API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the zerobait api server",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command and its flag overrides on the root command
func init() {
	serveCmd.Flags().String("port", "", "listen port, overrides ZEROBAIT_PORT")
	serveCmd.Flags().String("db", "", "sqlite database path, overrides ZEROBAIT_DB_PATH")

	rootCmd.AddCommand(serveCmd)
}

// serve initializes dependencies and starts the zerobait API server
func serve(ctx context.Context) error {
	cfg := config.New()

	// command-line flags win over the environment
	if port := k.String("port"); port != "" {
		cfg.Port = port
	}

	if db := k.String("db"); db != "" {
		cfg.DatabasePath = db
	}

	st, err := setupStore(cfg)
	if err != nil {
		return fmt.Errorf("setting up store: %w", err)
	}

	defer func() { _ = st.Close() }()

	adapters, intel := setupAdapters(cfg)

	analyzer := analysis.NewAnalyzer(st, adapters, setupNarrative(cfg),
		analysis.WithFreshFor(cfg.CacheTTL))

	handler := api.NewRouter(api.RouterConfig{
		Handler:      api.NewHandler(analyzer, st, intel),
		Limiter:      api.NewBucketLimiter(cfg.RateLimitCapacity, cfg.RateLimitRefill),
		MaxBodyBytes: cfg.MaxBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting zerobait service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// setupStore opens the SQLite store, or an in-memory store when no database
// path is configured
func setupStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabasePath == "" {
		log.Info().Msg("no database path configured, using in-memory store")

		return store.NewMemoryStore(), nil
	}

	return store.NewSQLiteStore(cfg.DatabasePath)
}

// setupAdapters builds the provider adapters. Adapters for unconfigured
// providers still run and settle as unavailable, keeping the result bag
// shape stable. The Safe Browsing adapter is returned separately for the
// quick-scan intel refresh; nil when unconfigured.
func setupAdapters(cfg *config.Config) ([]providers.Adapter, providers.Adapter) {
	if cfg.VirusTotalAPIKey == "" {
		log.Info().Msg("virustotal not configured, reputation checks disabled")
	}

	if cfg.SafeBrowsingAPIKey == "" {
		log.Info().Msg("safe browsing not configured, malware list checks disabled")
	}

	if cfg.WhoisXMLAPIKey == "" {
		log.Info().Msg("whoisxml not configured, domain age checks disabled")
	}

	if cfg.URLScanAPIKey == "" {
		log.Info().Msg("urlscan not configured, screenshots disabled")
	}

	sb := providers.NewSafeBrowsing(cfg.SafeBrowsingAPIKey)

	adapters := []providers.Adapter{
		providers.NewVirusTotal(cfg.VirusTotalAPIKey),
		sb,
		providers.NewWhois(cfg.WhoisXMLAPIKey),
		providers.NewSSLLabs(),
		providers.NewURLScan(cfg.URLScanAPIKey),
	}

	var intel providers.Adapter
	if cfg.SafeBrowsingAPIKey != "" {
		intel = sb
	}

	return adapters, intel
}

// setupNarrative builds the narrative generator from config, falling back to
// the fixed-placeholder generator when no Gemini key is configured
func setupNarrative(cfg *config.Config) narrative.Generator {
	if cfg.GeminiAPIKey == "" {
		log.Info().Msg("gemini not configured, AI narratives disabled")

		return narrative.Unconfigured{}
	}

	return narrative.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
}
