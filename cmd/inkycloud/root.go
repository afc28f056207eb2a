package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Rhiz3K/InkyCloud-F1/internal/config"
	"github.com/Rhiz3K/InkyCloud-F1/internal/f1"
	"github.com/Rhiz3K/InkyCloud-F1/internal/i18n"
	"github.com/Rhiz3K/InkyCloud-F1/internal/log"
	"github.com/Rhiz3K/InkyCloud-F1/internal/render"
	"github.com/Rhiz3K/InkyCloud-F1/internal/scheduler"
	"github.com/Rhiz3K/InkyCloud-F1/internal/server"
	"github.com/Rhiz3K/InkyCloud-F1/internal/storage/sqlite"
)

const envPrefix = "INKYCLOUD"

var rootCmd = &cobra.Command{
	Use:   "inkycloud",
	Short: "F1 race weekend calendar server for e-paper displays",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("host", config.DefaultHost, "Listen address")
	flags.Int("port", config.DefaultPort, "Listen port")
	flags.String("api-url", config.DefaultAPIURL, "Jolpica API base URL")
	flags.Duration("request-timeout", config.DefaultRequestTimeout, "Upstream HTTP timeout")
	flags.String("default-lang", config.DefaultLang, "Default display language")
	flags.String("default-timezone", config.DefaultTimezone, "Default display timezone")
	flags.String("asset-dir", config.DefaultAssetDir, "Directory with fonts, logos, track maps and flags")
	flags.String("translations-dir", config.DefaultTranslationsDir, "Directory with <lang>.json translation files")
	flags.String("database-path", config.DefaultDatabasePath, "SQLite database file")
	flags.Bool("scheduler-enabled", true, "Pre-generate images on an interval")
	flags.Duration("refresh-every", config.DefaultRefreshEvery, "Cache refresh interval")
	flags.Bool("debug", false, "Verbose development logging")
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())
	bindFlags(rootCmd, viper.GetViper())
}

// Bind each cobra flag to its associated viper configuration
// (environment variable), mapping dashes to underscores.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

func run() error {
	if viper.GetBool("debug") {
		log.InitDevelopmentLogger()
	} else {
		log.InitProductionLogger()
	}
	defer log.Sync()
	logger := log.Logger

	cfg := config.Load(viper.GetViper(), logger)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	store, err := sqlite.NewFileStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	fonts := render.NewFonts(cfg.AssetDir, logger)
	assets := render.NewAssets(cfg.AssetDir, logger)
	circuits := f1.LoadCircuits(filepath.Join(cfg.AssetDir, "circuits_data.json"), logger)
	catalog := i18n.NewCatalog(cfg.TranslationsDir, cfg.DefaultLang, logger)

	client := f1.NewClient(cfg.APIURL, cfg.DefaultTimezone, cfg.RequestTimeout, logger)
	static := f1.NewStatic(cfg.AssetDir, cfg.DefaultTimezone, circuits, logger)

	srv := server.New(cfg, client, static, store, fonts, assets, circuits, catalog, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SchedulerEnabled {
		sched := scheduler.New(srv, store, cfg.RefreshEvery,
			cfg.DefaultLang, cfg.DefaultTimezone, logger)
		go sched.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	return nil
}
