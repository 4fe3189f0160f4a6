package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/utasoy/market-reconciler/internal/api"
	"github.com/utasoy/market-reconciler/internal/cache"
	"github.com/utasoy/market-reconciler/internal/config"
	"github.com/utasoy/market-reconciler/internal/db"
	"github.com/utasoy/market-reconciler/internal/domain"
	"github.com/utasoy/market-reconciler/internal/drive"
	"github.com/utasoy/market-reconciler/internal/fx"
	"github.com/utasoy/market-reconciler/internal/job"
	"github.com/utasoy/market-reconciler/internal/report"
	"github.com/utasoy/market-reconciler/internal/storage"
	"github.com/utasoy/market-reconciler/internal/template"
	"github.com/utasoy/market-reconciler/pkg/logger"
)

func main() {
	cfg := config.Load()

	fxProvider := fx.NewProvider(cfg.FX)
	if err := fxProvider.Refresh(context.Background()); err != nil {
		logger.Log.Warn().Err(err).Msg("initial exchange rate fetch failed, continuing with fallback rates")
	}
	fxCtx, fxCancel := context.WithCancel(context.Background())
	defer fxCancel()
	go fxProvider.RunPeriodic(fxCtx)

	templates, objectStore, jobMirror := wireOptionalBackends(cfg)

	jobStore, err := job.NewStore(cfg.Jobs.Dir, jobMirror)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to open job store")
	}

	orchestrator := job.NewOrchestrator(jobStore)
	orchestrator.Writer = func(ctx context.Context, jobID string, rows []domain.MatchedRow, in job.MatchingInput, meta job.RunMeta) (string, error) {
		resultPath := filepath.Join(cfg.App.DataDir, jobID+".xlsx")
		if err := report.Write(resultPath, rows, in.Internal, in.Supplier, in.Marketplace, meta, in.OriginalFormat); err != nil {
			return "", err
		}
		if objectStore != nil {
			data, err := os.ReadFile(resultPath)
			if err == nil {
				if err := objectStore.UploadObject(ctx, jobID+".xlsx", data); err != nil {
					logger.Log.Warn().Err(err).Str("job_id", jobID).Msg("failed to sync report to object storage")
				}
			}
		}
		return resultPath, nil
	}

	if cfg.Drive.Enabled {
		startDriveWatcher(cfg)
	}

	router := api.NewRouter(&api.Deps{
		Templates:    templates,
		Jobs:         jobStore,
		FX:           fxProvider,
		Orchestrator: orchestrator,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	logger.Log.Info().Msg("server exiting")
}

// wireOptionalBackends builds the template store, job mirror and object
// storage client, preferring Postgres/redis/Sevalla when DB_ENABLED,
// JOBS_MIRROR_TO_REDIS and OBJECT_STORE_ENABLED say so, and falling
// back to the local file-backed implementations otherwise, so a single
// binary serves both the zero-dependency laptop setup and a production
// one.
func wireOptionalBackends(cfg *config.Config) (template.Store, *storage.SevallaClient, job.Mirror) {
	templates, err := template.NewFileStore(filepath.Join(cfg.App.DataDir, "templates"))
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to open template store")
	}

	var finalTemplates template.Store = templates
	var jobMirror job.Mirror

	if cfg.Database.Enabled {
		conn, err := db.Open(cfg.Database)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("postgres unavailable, falling back to file-backed templates")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if pgTemplates, err := template.NewPostgresStore(ctx, conn); err != nil {
				logger.Log.Warn().Err(err).Msg("failed to initialize postgres template store")
			} else {
				finalTemplates = pgTemplates
			}

			if cfg.Jobs.MirrorToRedis {
				if pgMirror, err := job.NewPostgresMirror(ctx, conn); err != nil {
					logger.Log.Warn().Err(err).Msg("failed to initialize postgres job audit log")
				} else {
					jobMirror = pgMirror
				}
			}
		}
	}

	if jobMirror == nil && cfg.Jobs.MirrorToRedis {
		redisMirror, err := cache.NewJobStatusMirror(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("falling back to noop job mirror")
		} else {
			jobMirror = redisMirror
		}
	}

	var objectStore *storage.SevallaClient
	if cfg.Object.Enabled {
		client, err := storage.NewSevallaClient(storage.SevallaConfig{
			Endpoint:  cfg.Object.Endpoint,
			AccessKey: cfg.Object.AccessKey,
			SecretKey: cfg.Object.SecretKey,
			Bucket:    cfg.Object.Bucket,
			UseSSL:    cfg.Object.UseSSL,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, reports stay local only")
		} else {
			objectStore = client
		}
	}

	return finalTemplates, objectStore, jobMirror
}

// startDriveWatcher polls a Google Drive folder and, on every poll,
// downloads each CSV/XLSX file in it (files seen before included) into
// the upload directory, where an operator would otherwise have placed a
// manual export.
func startDriveWatcher(cfg *config.Config) {
	svc, err := drive.NewService(cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("drive watcher disabled: could not initialize client")
		return
	}

	downloader := drive.NewDownloader(svc)
	interval := time.Duration(cfg.Drive.PollIntervalSeconds) * time.Second
	downloadDir := filepath.Join(cfg.App.UploadDir, "drive")

	watcher := drive.NewWatcher(downloader, cfg.Drive.WatchFolderID, downloadDir, interval, func(ctx context.Context, localPaths []string) {
		for _, p := range localPaths {
			logger.Log.Info().Str("path", p).Msg("downloaded file from drive watch folder")
		}
	})

	go watcher.Run(context.Background())
}
