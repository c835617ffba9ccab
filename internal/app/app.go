package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jgivc/autodocs/internal/adapter/mdadapter"
	"github.com/jgivc/autodocs/internal/adapter/tpladapter"
	"github.com/jgivc/autodocs/internal/config"
	"github.com/jgivc/autodocs/internal/entity"
	httphandler "github.com/jgivc/autodocs/internal/handler/http"
	rartifact "github.com/jgivc/autodocs/internal/repository/artifact"
	"github.com/jgivc/autodocs/internal/repository/document"
	rsettings "github.com/jgivc/autodocs/internal/repository/settings"
	sartifact "github.com/jgivc/autodocs/internal/service/artifact"
	"github.com/jgivc/autodocs/internal/service/batch"
	"github.com/jgivc/autodocs/internal/service/docs"
	ssettings "github.com/jgivc/autodocs/internal/service/settings"
	"github.com/klauspost/compress/gzhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const (
	batchTimeout    = 30 * time.Minute
	shutdownTimeout = 5 * time.Second
)

type batchRunner interface {
	Run(ctx context.Context) ([]*entity.BatchResult, error)
}

type App struct {
	cfgPath   string
	cfg       *config.Config
	srv       *http.Server
	rdb       *redis.Client
	artifacts interface{ Close() }
	batch     batchRunner
	log       *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(opt)
	ctx := context.Background()
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		panic(err)
	}
	a.rdb = rdb

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	docRepo := document.NewDocumentRepository(rdb, a.cfg.Artifacts.DocumentTTL, log)
	artRepo, err := rartifact.NewArtifactRepository(rdb, a.cfg.Artifacts.TTL, log)
	if err != nil {
		panic(err)
	}
	a.artifacts = artRepo

	md := mdadapter.NewMDAdapter()
	pages, err := tpladapter.NewTplAdapter(afero.NewOsFs(), a.cfg.Artifacts.PageTemplate)
	if err != nil {
		panic(err)
	}

	settingsSrv := ssettings.NewSettingsService(rsettings.NewSettingsRepository(rdb, log), &a.cfg.LLM, log)
	gen := docs.NewGenerator(settingsSrv, a.cfg.Artifacts.MaxUploadSize, log)
	docsSrv := docs.NewDocsService(gen, docRepo, artRepo, md, log)

	builder := sartifact.NewBuilder(md, pages, a.cfg.Artifacts.BundleExtras)
	artSrv := sartifact.NewArtifactService(docRepo, artRepo, builder, a.cfg.URL, log)

	batchSrv := batch.NewBatchService(afero.NewOsFs(), gen, builder, &a.cfg.Batch, log)
	a.batch = batchSrv

	mux := http.NewServeMux()
	mux.Handle("POST /workflow/{$}", httphandler.NewWorkflowHandler(docsSrv, a.cfg.URL, a.cfg.Artifacts.MaxUploadSize, log))
	mux.Handle("GET /docs/{id}/{$}", httphandler.NewPreviewHandler(docsSrv, log))
	mux.Handle("DELETE /docs/{id}/{$}", httphandler.NewResetHandler(docsSrv, log))

	for _, kind := range []entity.ArtifactKind{entity.ArtifactZip, entity.ArtifactPrint, entity.ArtifactShare, entity.ArtifactWorkflow} {
		mux.Handle("POST /docs/{id}/"+string(kind)+"/{$}", httphandler.NewBuildArtifactHandler(kind, artSrv, log))
	}

	mux.Handle("GET /artifact/{id}/{$}", httphandler.NewArtifactHandler(artSrv, log))
	mux.Handle("DELETE /artifact/{id}/{$}", httphandler.NewReleaseHandler(artSrv, log))

	mux.Handle("GET /settings/{$}", httphandler.NewGetSettingsHandler(settingsSrv, log))
	mux.Handle("PUT /settings/{$}", httphandler.NewSaveSettingsHandler(settingsSrv, log))
	mux.Handle("DELETE /settings/{$}", httphandler.NewClearSettingsHandler(settingsSrv, log))
	mux.Handle("POST /settings/validate/{$}", httphandler.NewValidateSettingsHandler(settingsSrv, log))

	mux.Handle("GET /batch/{$}", httphandler.NewBatchHandler(batchSrv, log))

	a.srv = &http.Server{
		Addr:    a.cfg.Listen,
		Handler: gzhttp.GzipHandler(mux),
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

// Batch documents the workflows in the work dir and prints a report.
func (a *App) Batch() {
	if a.batch == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Println("Documenting workflows...")

	results, err := a.batch.Run(ctx)
	if err != nil {
		fmt.Printf("Cannot run batch: %s\n", err)

		return
	}

	for i, res := range results {
		switch {
		case res.Error != "":
			fmt.Printf("%d. %s: %s\n", i+1, res.Source, res.Error)
		case res.Skipped:
			fmt.Printf("%d. %s -> %s (up to date)\n", i+1, res.Source, res.Output)
		default:
			fmt.Printf("%d. %s -> %s, title: %s\n", i+1, res.Source, res.Output, res.Title)
		}
	}

	fmt.Println("Done.")
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			a.log.Error("Cannot shutdown server", slog.Any("error", err))
		}
	}

	if a.artifacts != nil {
		a.artifacts.Close()
	}

	if a.rdb != nil {
		a.rdb.Close()
	}
}
