package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Alp4ka/metapager/gormstore"
	"github.com/Alp4ka/metapager/internal/config"
)

type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	store  *gormstore.Store
}

var (
	configPath string
	current    app
)

var rootCmd = &cobra.Command{
	Use:           "metapager",
	Short:         "Keyset pagination over records with auxiliary attributes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logger, err := cfg.Logger()
		if err != nil {
			return fmt.Errorf("cannot build logger: %w", err)
		}

		db, err := gormstore.Open(cfg.Database.Dialect, cfg.Database.DSN)
		if err != nil {
			return err
		}

		current = app{
			cfg:    cfg,
			logger: logger,
			db:     db,
			store:  gormstore.New(db).WithLogger(logger.Named("store")),
		}

		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if current.logger != nil {
			_ = current.logger.Sync()
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the record tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := current.store.Migrate(cmd.Context()); err != nil {
			return err
		}

		current.logger.Info("Record tables migrated", zap.String("dialect", current.cfg.Database.Dialect))

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(migrateCmd, seedCmd, listCmd, setMetaCmd, deleteCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
