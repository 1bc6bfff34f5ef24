package app

import (
	"context"

	"github.com/Badsnus/qrstudio/internal/adapters/config"
	"github.com/Badsnus/qrstudio/internal/adapters/controller/web"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	"github.com/Badsnus/qrstudio/pkg/preview"
)

// App holds the wired services of one process.
type App struct {
	Config  *config.Config
	Library *service.LibraryService
	Export  *service.ExportService
	Logger  *types.Logger
}

func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Get(configPath)
	if err != nil {
		return nil, err
	}

	appLogger, err := logger.Named("app")
	if err != nil {
		return nil, err
	}

	storage, err := cfg.OpenLibrary(ctx)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Library: service.NewLibraryService(storage, logger.NamedOrNop("library")),
		Export:  service.NewExportService(cfg.ExportBaseSize, cfg.ExportMultiples, logger.NamedOrNop("export")),
		Logger:  appLogger,
	}, nil
}

// Server builds the live editor bound to a fresh preview surface.
func (a *App) Server(onReady func(addr string)) (*web.Server, *service.Editor) {
	surface := web.NewSurface()
	editor := service.NewEditor(service.EditorOptions{
		PreviewSize: a.Config.PreviewSize,
		Crop:        a.Config.Crop,
		Preview: preview.Options{
			Target:    surface,
			Presenter: surface,
			Timings:   a.Config.Timings,
			Logger:    logger.NamedOrNop("preview"),
		},
		Logger: logger.NamedOrNop("editor"),
	})

	server := web.NewServer(web.Config{
		Host:    a.Config.ServerHost,
		Port:    a.Config.ServerPort,
		OnReady: onReady,
		OnBeforeShutdown: func() {
			a.Logger.Info("Shutting down web application...")
			editor.Close()
		},
	}, editor, a.Library, a.Export, surface)
	return server, editor
}
