package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fincatalog/catalog/internal/config"
	dbRedis "github.com/fincatalog/catalog/internal/db/redis"
	"github.com/fincatalog/catalog/internal/db/sqldb"
	logpkg "github.com/fincatalog/catalog/internal/logger"
	"github.com/fincatalog/catalog/internal/repository/pagecache"
	paperrepo "github.com/fincatalog/catalog/internal/repository/paper"
	"github.com/fincatalog/catalog/internal/version"
)

// app holds the dependencies shared by subcommands. Built lazily by setup.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *sqldb.Store
	repo   *paperrepo.Repo
	cache  *pagecache.Cache
	kv     *dbRedis.Store
}

func (a *app) close() {
	if a.kv != nil {
		a.kv.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// execute runs the CLI against a and releases whatever setup opened.
// Cobra skips post-run hooks when RunE fails, so cleanup is deferred here.
func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "catalog-ingest",
		Short: "Load paper records into the finance AI catalog",
		Long: `catalog-ingest bootstraps the catalog schema and upserts paper records
from YAML or JSON files. Records without an id get one derived from their
link, or their title when the link is empty.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("env", "", "config environment (default: $ENV or local)")
	root.PersistentFlags().String("config", "", "explicit config file path (overrides --env)")

	root.AddCommand(newUpsertCmd(a), newSchemaCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	env, _ := cmd.Flags().GetString("env")
	if env == "" {
		env = config.GetEnv()
	}

	var err error
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		a.cfg, err = config.LoadFile(path)
	} else {
		a.cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logEnv := env
	if logEnv != "prod" {
		logEnv = "local"
	}
	if a.logger, err = logpkg.NewLogger(logEnv, a.cfg.Logging.Level); err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	a.store, err = sqldb.Open(sqldb.Config{
		Driver:       a.cfg.Database.Driver,
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}

	if err := a.store.WaitForReady(cmd.Context(), time.Duration(a.cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("record store not ready: %w", err)
	}
	a.repo = paperrepo.New(a.store)

	if a.cfg.Cache.Enabled {
		a.kv, err = dbRedis.NewStore(dbRedis.Config{Addrs: a.cfg.Cache.Addrs, Password: a.cfg.Cache.Password})
		if err != nil {
			// Stale pages expire by TTL; ingestion still proceeds.
			a.logger.Warn("Page cache unavailable, skipping invalidation", zap.Error(err))
		} else {
			a.cache = pagecache.New(a.kv, a.cfg.Cache.KeyPrefix, time.Duration(a.cfg.Cache.TTLSec)*time.Second)
		}
	}
	return nil
}
