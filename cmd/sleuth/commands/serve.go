package commands

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pmarlowe/sleuth/internal/cache"
	"github.com/pmarlowe/sleuth/internal/config"
	"github.com/pmarlowe/sleuth/internal/server"
	"github.com/pmarlowe/sleuth/internal/session"
	"github.com/pmarlowe/sleuth/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sleuth notebook service",
	Long: `Serve hosts the websocket notebook service. Configuration comes from
the environment (and an optional .env file):

  SLEUTH_LISTEN_ADDR  listen address (default :8080)
  SLEUTH_DB_PATH      sqlite database path (default sleuth.db)
  SLEUTH_REDIS_ADDR   enables the Redis turn historian when set
  SLEUTH_LOG_LEVEL    logrus level (default info)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	historian := cache.New(cfg.RedisAddr)
	defer historian.Close()
	if historian.Enabled() {
		log.WithField("addr", cfg.RedisAddr).Info("turn historian enabled")
	}

	mgr := session.NewManager(store, historian, log)
	srv := server.New(mgr, log)

	log.WithField("addr", cfg.ListenAddr).Info("sleuth service listening")
	return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
}
