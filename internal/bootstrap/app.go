// Package bootstrap ties the service lifecycle together: configuration,
// logging, component startup in dependency order, signal handling, and
// graceful shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zetalabs/teliads/internal/component"
	"github.com/zetalabs/teliads/internal/config"
	"github.com/zetalabs/teliads/internal/logger"
)

// App manages the service lifecycle. Components start in registration
// order and stop in reverse, so the credential store is loaded before the
// listener binds and the listener drains before anything else tears down.
type App struct {
	Name       string
	Cfg        *config.Config
	Components *component.Registry
	Logger     *logger.Logger

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
}

// NewApp creates an application from a validated config and initializes
// the global logger.
func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config")
	}

	logger.Init(cfg.Logging)

	app := &App{
		Name:       cfg.Name,
		Cfg:        cfg,
		Components: component.NewRegistry(),
		Logger:     logger.GetGlobalLogger(),
	}

	o := resolveOptions(opts)
	if o.logger != nil {
		app.Logger = o.logger
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	return app, nil
}

// RegisterComponent adds a component to the application's registry.
func (a *App) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// OnStart registers hooks that run after all components have started.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop registers hooks that run during shutdown before components stop.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// Run executes the full application lifecycle: start components, run
// OnStart hooks, block until a termination signal, then shut down
// gracefully. Returns only on process termination.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("Starting application", map[string]interface{}{
		"name": a.Name,
	})

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	a.Logger.Info("Application ready — waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

// WaitForSignal blocks until an OS interrupt/term signal or context
// cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal — graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled — shutting down")
		return nil
	}
}

// Shutdown performs graceful shutdown. Use when managing your own lifecycle.
func (a *App) Shutdown(ctx context.Context) error {
	return a.stop()
}

// stop gracefully shuts down all components. With no graceful timeout
// configured the drain is unbounded, matching the serving policy of never
// cutting off an in-flight request.
func (a *App) stop() error {
	ctx := context.Background()
	if a.gracefulTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.gracefulTimeout)
		defer cancel()
	}

	a.Logger.Info("Shutting down application")

	var shutdownErr error

	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}
