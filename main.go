package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"github.com/yeremiapane/restaurant-platform/config"
	"github.com/yeremiapane/restaurant-platform/router"
	"github.com/yeremiapane/restaurant-platform/utils"
)

const shutdownTimeout = 10 * time.Second

var flagConfig = &cli.StringFlag{
	Name:    "config",
	Usage:   "Path to a YAML config file; environment variables override it",
	EnvVars: []string{"CONFIG_PATH"},
}

var flagPort = &cli.StringFlag{
	Name:  "port",
	Usage: "Listen port, overrides PORT",
}

func main() {
	app := &cli.App{
		Name:           "restaurant-platform",
		Usage:          "Multi-tenant restaurant tables, QR ordering and menu services",
		DefaultCommand: config.ServiceStandalone,
		Flags:          []cli.Flag{flagConfig, flagPort},
		Commands: []*cli.Command{
			serviceCommand(config.ServiceGateway, "Public HTTP gateway, forwards to the backend services"),
			serviceCommand(config.ServiceIdentity, "Users, sessions and token validation"),
			serviceCommand(config.ServiceTables, "Tables, floors and QR tokens"),
			serviceCommand(config.ServiceCatalog, "Menu categories and items"),
			serviceCommand(config.ServiceStandalone, "Gateway and every service in one process"),
		},
	}

	if err := app.Run(os.Args); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func serviceCommand(service, usage string) *cli.Command {
	return &cli.Command{
		Name:  service,
		Usage: usage,
		Action: func(cCtx *cli.Context) error {
			return run(cCtx, service)
		},
	}
}

func run(cCtx *cli.Context, service string) error {
	cfg, err := config.Load(cCtx.String(flagConfig.Name))
	if err != nil {
		return err
	}
	if port := cCtx.String(flagPort.Name); port != "" {
		cfg.Port = port
	}
	if err := cfg.Validate(service); err != nil {
		return err
	}

	utils.ConfigureLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	health := router.NewHealth()
	app, err := build(cfg, service, health)
	if err != nil {
		return err
	}
	defer app.shutdown()

	return serve(app.handler, cfg.Port, health)
}

// serve blocks until SIGINT/SIGTERM, then flips readiness off and drains.
func serve(handler http.Handler, port string, health *router.Health) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.InfoLogger.Printf("Listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.InfoLogger.Println("Shutting down...")
	health.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
