// Package app wires the service together and runs it.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gltp/captrack/internal/config"
	"github.com/gltp/captrack/internal/database"
	"github.com/gltp/captrack/internal/discord"
	"github.com/gltp/captrack/internal/maps"
	"github.com/gltp/captrack/internal/record"
	"github.com/gltp/captrack/internal/tagpro"
	"github.com/gltp/captrack/pkg/log"
	"golang.org/x/sync/errgroup"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

var ErrMapsDisabled = errors.New("maps.sheet_url is not configured")

type App struct {
	conf      config.Config
	database  database.Database
	mapsCache *maps.Cache
	records   record.Records
	bot       *discord.Bot
	sentry    *sentry.Client
	logCloser func()
}

func New(conf config.Config) *App {
	return &App{conf: conf}
}

func (app *App) Init(ctx context.Context) error {
	app.setupSentry()

	app.logCloser = log.MustCreateLogger(ctx, app.conf.Log.File, app.conf.Log.Level, app.sentry != nil)

	slog.Info("Starting captrack...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	dbConn := database.New(app.conf.DB.DSN, app.conf.DB.AutoMigrate, app.conf.DB.LogQueries)
	if errConnect := dbConn.Connect(ctx); errConnect != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errConnect))

		return errConnect
	}

	app.database = dbConn

	if app.conf.Maps.SheetURL == "" {
		return ErrMapsDisabled
	}

	app.mapsCache = maps.NewCache(maps.NewSheetSource(app.conf.Maps.SheetURL), app.conf.Maps.CacheTTL, nil)
	app.records = record.NewRecords(record.NewRepository(app.database), tagpro.NewClient(), app.mapsCache)

	if app.conf.Discord.Enabled {
		bot, errBot := discord.NewBot(app.conf.Discord.Token, app.conf.Discord.AppID, app.conf.Discord.GuildID)
		if errBot != nil {
			return errBot
		}

		if errRegister := record.RegisterDiscordCommands(bot, app.records); errRegister != nil {
			return errRegister
		}

		app.bot = bot
	}

	return nil
}

func (app *App) setupSentry() {
	if app.conf.Sentry.DSN == "" {
		return
	}

	client, errClient := log.NewSentryClient(app.conf.Sentry.DSN, true, 0.25, BuildVersion,
		app.conf.General.Mode == config.ReleaseMode)
	if errClient != nil {
		slog.Error("Failed to setup sentry client", log.ErrAttr(errClient))

		return
	}

	app.sentry = client
}

// Serve runs the HTTP API, the map configuration refresher and the discord
// bot until the context is cancelled or a shutdown signal arrives.
func (app *App) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, errRouter := createRouter(app.conf, app.records, app.sentry != nil)
	if errRouter != nil {
		slog.Error("Could not setup router", log.ErrAttr(errRouter))

		return errRouter
	}

	httpServer := &http.Server{
		Addr:           app.conf.HTTP.Addr(),
		Handler:        router,
		ReadTimeout:    time.Second * 10,
		WriteTimeout:   time.Second * 120,
		MaxHeaderBytes: 1 << 20,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("Starting HTTP server", slog.String("address", app.conf.HTTP.Addr()))

		if errServe := httpServer.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			return errServe
		}

		return nil
	})

	group.Go(func() error {
		app.refreshMaps(groupCtx)

		return nil
	})

	if app.bot != nil {
		group.Go(func() error {
			if errStart := app.bot.Start(); errStart != nil {
				slog.Error("Failed to start bot", log.ErrAttr(errStart))
			}

			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx) //nolint:contextcheck
	})

	if errGroup := group.Wait(); errGroup != nil {
		slog.Error("Service returned error", log.ErrAttr(errGroup))

		return errGroup
	}

	slog.Info("Exiting...")

	return nil
}

// refreshMaps keeps the objective cache warm so submissions do not block on
// a cold sheet fetch.
func (app *App) refreshMaps(ctx context.Context) {
	if _, errWarm := app.mapsCache.Snapshot(ctx); errWarm != nil {
		slog.Warn("Failed initial map configuration fetch", log.ErrAttr(errWarm))
	}

	ticker := time.NewTicker(app.conf.Maps.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, errRefresh := app.mapsCache.Snapshot(ctx); errRefresh != nil {
				slog.Warn("Failed to refresh map configuration", log.ErrAttr(errRefresh))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (app *App) Close() error {
	if app.bot != nil {
		app.bot.Shutdown()
	}

	if app.database != nil {
		if errClose := app.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if app.sentry != nil {
		app.sentry.Flush(2 * time.Second)
	}

	if app.logCloser != nil {
		app.logCloser()
	}

	return nil
}
