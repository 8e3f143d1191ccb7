package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/splitfair/internal/buildinfo"
	"github.com/dmitrijs2005/splitfair/internal/client/cli"
	"github.com/dmitrijs2005/splitfair/internal/client/client"
	"github.com/dmitrijs2005/splitfair/internal/client/config"
	"github.com/dmitrijs2005/splitfair/internal/client/csrf"
	"github.com/dmitrijs2005/splitfair/internal/client/gate"
	"github.com/dmitrijs2005/splitfair/internal/client/metrics"
	"github.com/dmitrijs2005/splitfair/internal/client/services"
	"github.com/dmitrijs2005/splitfair/internal/client/session"
	"github.com/dmitrijs2005/splitfair/internal/filex"
	"github.com/dmitrijs2005/splitfair/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	if err := run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}
	if z, ok := logger.(*logging.ZapLogger); ok {
		defer func() { _ = z.Sync() }()
	}

	if _, err := filex.EnsureParentDir(cfg.DBPath); err != nil {
		return err
	}
	db, err := client.InitDatabase(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := session.NewStore(ctx, session.NewMetadataIdentityRepository(db), logger)
	if err != nil {
		return err
	}

	httpClient, err := client.NewHTTPClient(cfg.RequestTimeout)
	if err != nil {
		return err
	}

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error(ctx, "metrics listener stopped", "error", err)
			}
		}()
	}

	acq, err := csrf.New(httpClient, store, csrf.Options{
		BaseURL:    cfg.BaseURL,
		TokenPath:  cfg.TokenPath,
		CookieName: cfg.CookieName,
		Logger:     logger,
		OnAcquire:  m.OnAcquire,
	})
	if err != nil {
		return err
	}

	api, err := client.New(httpClient, acq, store, client.Options{
		BaseURL:    cfg.BaseURL,
		HeaderName: cfg.HeaderName,
		FormField:  cfg.FormField,
		Logger:     logger,
	}, client.WithPostHook(m.PostHook()))
	if err != nil {
		return err
	}

	auth := services.NewAuthService(api, acq, store, services.AuthPaths{
		Login:    cfg.LoginPath,
		Register: cfg.RegisterPath,
		Logout:   cfg.LogoutPath,
	}, logger)
	events := services.NewEventService(api, services.EventPaths{
		List:   cfg.EventsPath,
		Create: cfg.CreateEventPath,
	})

	app := cli.NewApp(auth, events, gate.New(auth), os.Stdin, os.Stdout, logger)
	app.Run(ctx)
	return nil
}
