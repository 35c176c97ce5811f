package app

import (
	"context"
	"net"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/container"
	gohttp "github.com/km-arc/go-uploads/framework/http"
	"github.com/km-arc/go-uploads/framework/providers"
	"github.com/km-arc/go-uploads/framework/routing"
)

// Application is the top-level application container.
// It embeds the IoC Container and ProviderRegistry so user code can
// call app.Bind(), app.Singleton(), app.Register() directly,
// like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// New creates the application and registers the framework providers
// (config, logger, router) in that order.
func New(cfg *config.Config) *Application {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	registry.Register(&providers.ConfigServiceProvider{Config: cfg})
	registry.Register(&providers.LogServiceProvider{})
	registry.Register(&providers.RoutingServiceProvider{})

	return &Application{Container: c, Providers: registry}
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	a.Providers.Boot()
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.Resolve[*config.Config](a.Container, "config")
}

// Logger resolves the application logger.
func (a *Application) Logger() zerolog.Logger {
	return container.Resolve[zerolog.Logger](a.Container, "logger")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.Resolve[*routing.Router](a.Container, "router")
}

// Server builds the HTTP server: configured timeouts and a request body cap
// of UPLOAD_MAX_BODY_MB.
func (a *Application) Server() *http.Server {
	cfg := a.Config()
	return &http.Server{
		Addr:         net.JoinHostPort("", cfg.App.Port),
		Handler:      http.MaxBytesHandler(a.Router(), cfg.Upload.MaxBody()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

// Run boots the application (if needed) and serves HTTP until ctx is done,
// then shuts down gracefully within SERVER_SHUTDOWN_TIMEOUT.
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	err := application.Run(ctx)
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()
	log := a.Logger()
	srv := a.Server()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("app", cfg.App.Name).
			Str("env", cfg.App.Env).
			Str("addr", srv.Addr).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- errors.Wrap(err, "listen")
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// Controller is an embeddable base for HTTP controllers.
type Controller struct{}

func (c *Controller) Request(r *http.Request) *gohttp.Request {
	return gohttp.NewRequest(r)
}
func (c *Controller) Response(w http.ResponseWriter) *gohttp.Response {
	return gohttp.NewResponse(w)
}
