package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/events"
	"resumerank-engine/internal/httpapi"
	"resumerank-engine/internal/metrics"
	"resumerank-engine/internal/pipeline"
	"resumerank-engine/internal/rank"
	"resumerank-engine/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP engine",
	Long: `Serve starts the HTTP engine on 127.0.0.1. It ranks uploads, stores runs
in SQLite, streams events over SSE and WebSocket, and sweeps old runs on a
schedule. Only one engine may use a data dir at a time.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "override app.port")
	serveCmd.Flags().String("shutdown-token", "", "token required by POST /shutdown (default: random, printed on start)")
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("shutdown_token", serveCmd.Flags().Lookup("shutdown-token"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(true)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	lock := flock.New(filepath.Join(a.dataDir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("another engine is already using %s", a.dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	var cfgVal atomic.Value // stores config.Config
	cfgVal.Store(a.cfg)
	currentCfg := func() config.Config { return cfgVal.Load().(config.Config) }

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	hub := events.NewHub()
	svc := pipeline.New(rank.New(a.cfg.Scoring, logger), a.db.Pool, hub, m, logger)

	var limiter *httpapi.ClientLimiter
	if a.cfg.App.UploadRatePerSec > 0 {
		limiter = httpapi.NewClientLimiter(a.cfg.App.UploadRatePerSec, a.cfg.App.UploadBurst)
	}
	maxUpload := int64(a.cfg.App.MaxUploadMB) << 20

	router := httpapi.NewRouter(httpapi.Deps{
		DB:             a.db.Pool,
		Hub:            hub,
		Pipeline:       svc,
		Logger:         logger,
		Metrics:        m,
		Registry:       reg,
		CfgVal:         &cfgVal,
		UserCfgPath:    a.cfgPath,
		LoadCfg:        a.loadConfig,
		OnConfig:       func(c config.Config) { svc.SetEngine(rank.New(c.Scoring, logger)) },
		UploadLimiter:  limiter,
		MaxUploadBytes: maxUpload,
		Version:        version,
	})

	port := a.cfg.App.Port
	if p := viper.GetInt("port"); p > 0 {
		port = p
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	token := viper.GetString("shutdown_token")
	if token == "" {
		if token, err = randomToken(16); err != nil {
			return err
		}
		// The desktop shell reads this line to learn the token.
		fmt.Fprintf(cmd.OutOrStdout(), "SHUTDOWN_TOKEN=%s\n", token)
	}
	router.Post("/shutdown", shutdownHandler(token, srv))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweep := time.Duration(a.cfg.Retention.SweepMinutes) * time.Minute
	if sweep <= 0 {
		sweep = time.Hour
	}
	go scheduler.Every(ctx, sweep, "retention", logger, svc.RetentionTask(func() int {
		return currentCfg().Retention.Days
	}))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("engine listening", "addr", "http://"+addr, "data_dir", a.dataDir, "config", a.cfgPath, "version", version)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	stop()
	logger.Info("engine stopped")
	return nil
}
