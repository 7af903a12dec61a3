package main

import (
	"fmt"
	"net/http"

	"github.com/yeremiapane/restaurant-platform/config"
	"github.com/yeremiapane/restaurant-platform/database"
	"github.com/yeremiapane/restaurant-platform/endpoints"
	"github.com/yeremiapane/restaurant-platform/kds"
	"github.com/yeremiapane/restaurant-platform/middlewares"
	"github.com/yeremiapane/restaurant-platform/qrexport"
	"github.com/yeremiapane/restaurant-platform/qrtoken"
	"github.com/yeremiapane/restaurant-platform/router"
	"github.com/yeremiapane/restaurant-platform/rpc"
	"github.com/yeremiapane/restaurant-platform/services"
	"github.com/yeremiapane/restaurant-platform/utils"
	"gorm.io/gorm"
)

// application is a built process: its HTTP handler and the background
// workers to stop at shutdown, in reverse start order.
type application struct {
	handler http.Handler
	stops   []func()
}

func (a *application) onShutdown(fn func()) {
	a.stops = append(a.stops, fn)
}

func (a *application) shutdown() {
	for i := len(a.stops) - 1; i >= 0; i-- {
		a.stops[i]()
	}
}

func build(cfg *config.Config, service string, health *router.Health) (*application, error) {
	app := &application{}

	var db *gorm.DB
	if service != config.ServiceGateway {
		var err error
		if db, err = config.InitDB(cfg); err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.onShutdown(func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
	}

	if err := assemble(app, cfg, service, db, health); err != nil {
		app.shutdown()
		return nil, err
	}
	return app, nil
}

// assemble wires one service, or all of them for standalone mode, on top of db.
func assemble(app *application, cfg *config.Config, service string, db *gorm.DB, health *router.Health) error {
	switch service {
	case config.ServiceIdentity:
		commands, err := identityCommands(cfg, db, app)
		if err != nil {
			return err
		}
		app.handler = router.SetupServiceRouter(commands, health)

	case config.ServiceTables:
		commands, err := tablesCommands(cfg, db)
		if err != nil {
			return err
		}
		app.handler = router.SetupServiceRouter(commands, health)

	case config.ServiceCatalog:
		commands, err := catalogCommands(cfg, db)
		if err != nil {
			return err
		}
		app.handler = router.SetupServiceRouter(commands, health)

	case config.ServiceGateway:
		timeout := cfg.Services.Timeout
		app.handler = gateway(cfg, app, health,
			rpc.NewHTTPClient(config.ServiceIdentity, cfg.Services.IdentityURL, cfg.Services.IdentityAPIKey, timeout),
			rpc.NewHTTPClient(config.ServiceTables, cfg.Services.TablesURL, cfg.Services.TablesAPIKey, timeout),
			rpc.NewHTTPClient(config.ServiceCatalog, cfg.Services.CatalogURL, cfg.Services.CatalogAPIKey, timeout),
		)

	case config.ServiceStandalone:
		identity, err := identityCommands(cfg, db, app)
		if err != nil {
			return err
		}
		tables, err := tablesCommands(cfg, db)
		if err != nil {
			return err
		}
		catalog, err := catalogCommands(cfg, db)
		if err != nil {
			return err
		}
		timeout := cfg.Services.Timeout
		app.handler = gateway(cfg, app, health,
			rpc.NewLocalClient(identity, cfg.Services.IdentityAPIKey, timeout),
			rpc.NewLocalClient(tables, cfg.Services.TablesAPIKey, timeout),
			rpc.NewLocalClient(catalog, cfg.Services.CatalogAPIKey, timeout),
		)

	default:
		return fmt.Errorf("unknown service %q", service)
	}

	utils.InfoLogger.Printf("%s service ready (mode=%s)", service, cfg.Mode)
	return nil
}

func identityCommands(cfg *config.Config, db *gorm.DB, app *application) (*rpc.Router, error) {
	if err := database.MigrateIdentity(db); err != nil {
		return nil, err
	}

	tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	identity := services.NewIdentityService(db, tokens, cfg.JWT.RefreshThreshold)

	janitor := services.NewTokenJanitor(identity, 0)
	janitor.Start()
	app.onShutdown(janitor.Stop)

	commands := rpc.NewRouter(cfg.Services.IdentityAPIKey)
	endpoints.RegisterIdentityEndpoints(commands, identity)
	return commands, nil
}

func tablesCommands(cfg *config.Config, db *gorm.DB) (*rpc.Router, error) {
	if err := database.MigrateTables(db); err != nil {
		return nil, err
	}

	codec, err := qrtoken.NewCodec([]byte(cfg.QR.Secret))
	if err != nil {
		return nil, err
	}
	tables := services.NewTableRegistry(db)
	qr := services.NewQRService(tables, codec, qrexport.NewRenderer(cfg.QR.ImageSize), cfg.QR.PublicBaseURL, cfg.QR.CustomerAppURL)

	commands := rpc.NewRouter(cfg.Services.TablesAPIKey)
	endpoints.RegisterTableEndpoints(commands, tables, services.NewFloorRegistry(db), qr)
	return commands, nil
}

func catalogCommands(cfg *config.Config, db *gorm.DB) (*rpc.Router, error) {
	if err := database.MigrateCatalog(db); err != nil {
		return nil, err
	}

	commands := rpc.NewRouter(cfg.Services.CatalogAPIKey)
	endpoints.RegisterCatalogEndpoints(commands, services.NewCatalogService(db))
	return commands, nil
}

func gateway(cfg *config.Config, app *application, health *router.Health, identity, tables, catalog rpc.Client) http.Handler {
	limiter := middlewares.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TTL)
	strict := middlewares.NewStrictRateLimiter(cfg.RateLimit.TTL)
	limiter.Start()
	strict.Start()
	app.onShutdown(limiter.Stop)
	app.onShutdown(strict.Stop)

	hub := kds.NewHub()
	app.onShutdown(hub.Close)

	return router.SetupGatewayRouter(router.Gateway{
		Identity:      identity,
		Tables:        tables,
		Catalog:       catalog,
		Hub:           hub,
		Renderer:      qrexport.NewRenderer(cfg.QR.ImageSize),
		Health:        health,
		Limiter:       limiter,
		StrictLimiter: strict,
		CORSOrigins:   cfg.CORSOrigins,
		Release:       cfg.IsRelease(),
		ScanErrorURL:  cfg.QR.ScanErrorURL,
	})
}
