package cmd

import (
	"os"

	"github.com/kerbaras/mangashelf/pkg/config"
	"github.com/kerbaras/mangashelf/pkg/data"
	"github.com/kerbaras/mangashelf/pkg/logging"
	"github.com/kerbaras/mangashelf/pkg/sources"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	v          = config.New()
	configFile string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "mangashelf",
	Short:        "Archive downloaded manga chapters against your AniList library",
	Long:         "Ingest downloaded chapters into a reader library, link them to AniList entries and report missing chapters.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.config/mangashelf/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("db", "", "ledger database path")
	flags.String("db-driver", "duckdb", "ledger database driver (duckdb, sqlite)")

	bindFlag(v, "log.level", "log-level")
	bindFlag(v, "log.format", "log-format")
	bindFlag(v, "database.path", "db")
	bindFlag(v, "database.driver", "db-driver")
}

func bindFlag(v *viper.Viper, key, flag string) {
	cobra.CheckErr(v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openRepository() (*data.Repository, error) {
	return data.OpenRepository(cfg.Database.Driver, cfg.Database.Path)
}

func newCatalog() *sources.AniList {
	return sources.NewAniList(sources.AniListConfig{
		Endpoint: cfg.AniList.Endpoint,
		Token:    cfg.AniList.Token,
		UserID:   cfg.AniList.UserID,
	}, logger)
}

func truncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
