package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/chinesetutor/internal/api"
	"github.com/vytor/chinesetutor/internal/db"
	"github.com/vytor/chinesetutor/internal/jobs"
	"github.com/vytor/chinesetutor/internal/repository/sqlite"
	"github.com/vytor/chinesetutor/internal/services"
	"github.com/vytor/chinesetutor/internal/worker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for queued batch runs",
	Long: `Serve a JSON API that queues reconcile and insert batches, reports job
status and lists the run journal. Batches run one at a time.`,
	GroupID: "app",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := tutor.cfg
		log := tutor.log
		if serveAddr == "" {
			serveAddr = cfg.Addr
		}

		log.Info("===========================================")
		log.Info("Chinese Tutor Server Starting")
		log.Info("===========================================")
		log.Debug("addr=%s", serveAddr)
		log.Debug("db_path=%s", cfg.DBPath)
		log.Debug("job_queue_size=%d", cfg.JobQueueSize)
		log.Debug("run_retention_days=%d", cfg.RunRetentionDays)

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			log.Debug("closing database connection")
			database.Close()
		}()

		gen, err := tutor.generator()
		if err != nil {
			return err
		}
		synth := tutor.synthesizer()
		runs := sqlite.NewRunRepository(database.DB)

		syncService := services.NewSyncService(
			tutor.store,
			gen,
			services.NewInsertService(tutor.store, synth),
			services.NewReconcileService(tutor.store, gen, synth, tutor.prompts()),
			runs,
		)
		historyService := services.NewHistoryService(runs)

		pool := worker.NewPool(1, cfg.JobQueueSize)
		queue := jobs.NewWorkerQueue(pool, syncService, historyService)
		srv := api.NewServer(queue, historyService, tutor.store, database.DB, tutor.prompts(), tutor.prefs.DefaultDeck)

		ctx, stop := signal.NotifyContext(tutor.context(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workerCtx, cancel := context.WithCancel(ctx)
		pool.Start(workerCtx)
		if cfg.RunRetentionDays > 0 {
			worker.SchedulePrune(workerCtx, pool, historyService, cfg.RunRetention(), 24*time.Hour)
		}

		httpServer := &http.Server{
			Addr:         serveAddr,
			Handler:      srv.Routes(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info("HTTP server listening on %s", serveAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			cancel()
			pool.Stop()
			return err
		case <-ctx.Done():
			log.Info("received shutdown signal, initiating graceful shutdown")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		log.Debug("shutting down HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error: %v", err)
		}

		log.Debug("stopping worker pool")
		cancel()
		pool.Stop()

		log.Info("===========================================")
		log.Info("Chinese Tutor Server Stopped")
		log.Info("===========================================")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to ADDR)")
	rootCmd.AddCommand(serveCmd)
}
