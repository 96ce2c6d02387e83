// Command teliads runs the ad-spend sync service: an HTTP server with a
// fixed request pool that pulls Facebook ad insights and appends them to a
// Google Sheet on demand.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/zetalabs/teliads/internal/bootstrap"
	"github.com/zetalabs/teliads/internal/config"
	"github.com/zetalabs/teliads/internal/credentials"
	"github.com/zetalabs/teliads/internal/server"
	"github.com/zetalabs/teliads/internal/server/endpoint"
	"github.com/zetalabs/teliads/internal/sync"
)

const serviceName = "teliads"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	store := credentials.NewStore(log,
		credentials.PasskeysSource(cfg.Credentials.PasskeysFile),
		credentials.ServiceAccountSource(cfg.Credentials.ServiceAccountFile),
	)

	syncComp := sync.NewComponent(store, cfg.Facebook, cfg.Sheets, log)

	srv := server.New(cfg.Server, log)
	registerRoutes(srv, syncComp, app)

	// Registration order is the startup order: credentials load first,
	// then the sync wiring, and the listener binds last.
	if err := app.RegisterComponent(store); err != nil {
		return err
	}
	if err := app.RegisterComponent(syncComp); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	return app.Run(context.Background())
}

func registerRoutes(srv *server.Server, syncComp *sync.Component, app *bootstrap.App) {
	engine := srv.GinEngine()

	engine.GET("/", endpoint.Status())
	engine.GET("/health", endpoint.Health(serviceName, app.Components.HealthAll))
	engine.GET("/_ah/warmup", endpoint.Warmup())
	engine.GET("/info", endpoint.Info(serviceName))
	engine.GET("/sync", sync.Handler(syncComp, app.Logger))
}
