// Package server wires the account lifecycle engine, the session service
// and their transports into one runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/mailqueue"
	"github.com/dmitrijs2005/gophauth/internal/server/account"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/confirmation"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	registry *prometheus.Registry
	facade   *account.Facade
	sessions *services.SessionService
	closers  []io.Closer
}

// NewApp builds every component from c. Postgres storage is migrated
// before NewApp returns.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(out, c.LogLevel)
	app := &App{config: c, logger: logger, registry: prometheus.NewRegistry()}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(app.registry)

	db, runner, repos, err := app.openStorage(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	notifier, err := app.newNotifier()
	if err != nil {
		app.Close()
		return nil, err
	}

	hasher := password.NewBcryptHasher(c.BcryptCost)
	dispatcher := account.NewDispatcher(account.Dependencies{
		Repositories: repos,
		Hasher:       hasher,
		Generator:    password.NewStrongGenerator(c.GeneratedPasswordLength),
		Issuer:       confirmation.NewIssuer(c.ConfirmationTokenLength, c.ConfirmationTokenValidity),
		Notifier:     notifier,
		Templates:    notify.NewTemplates(c.PublicBaseURL),
		DefaultRole:  c.DefaultRole,
	})
	app.facade = account.NewFacade(dispatcher, runner, logger, m)

	codec := auth.NewCodec(auth.Options{
		Secret:          []byte(c.SecretKey),
		Issuer:          c.TokenIssuer,
		AccessValidity:  c.AccessTokenValidityDuration,
		RefreshValidity: c.RefreshTokenValidityDuration,
	}, logger, m)
	app.sessions = services.NewSessionService(db, runner, repos, codec, hasher, logger)

	return app, nil
}

// openStorage returns the handle used outside transactions, the
// transaction runner and the repositories for the configured backend.
func (app *App) openStorage(ctx context.Context) (dbx.DBTX, dbx.TxRunner, repomanager.RepositoryManager, error) {
	if app.config.Storage == config.StorageMemory {
		app.logger.Warn(ctx, "using in-memory storage, data is lost on restart")
		store := memory.New()
		return nil, store, store, nil
	}

	db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, db)

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, nil, nil, fmt.Errorf("migrations: %w", err)
	}
	return db, dbx.NewSQLRunner(db, sql.LevelReadCommitted), repos, nil
}

func (app *App) newNotifier() (notify.Notifier, error) {
	if app.config.AMQPURL == "" {
		return notify.NewLogNotifier(app.logger), nil
	}
	pub, err := mailqueue.Dial(app.config.AMQPURL, mailqueue.Config{
		Exchange:   app.config.AMQPExchange,
		RoutingKey: app.config.AMQPRoutingKey,
	})
	if err != nil {
		return nil, fmt.Errorf("mail queue: %w", err)
	}
	app.closers = append(app.closers, pub)
	return notify.NewQueueNotifier(pub, app.logger), nil
}

// Close releases the database and the mail queue connection.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		errs = append(errs, app.closers[i].Close())
	}
	app.closers = nil
	return errors.Join(errs...)
}

// Handler returns the HTTP API.
func (app *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Dependencies{
		Lifecycle:    app.facade,
		Sessions:     app.sessions,
		Logger:       app.logger,
		Gatherer:     app.registry,
		CookieName:   app.config.AuthCookieName,
		SecureCookie: strings.HasPrefix(app.config.PublicBaseURL, "https://"),
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or
// either server fails. The first server error is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		app.logger.Error(ctx, err.Error())
		errOnce.Do(func() { firstErr = err })
		cancelFunc()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.facade, app.sessions, "")
		if err := s.Run(ctx); err != nil {
			fail(fmt.Errorf("grpc server: %w", err))
		}
	}()
	go func() {
		defer wg.Done()
		s := httpapi.NewServer(app.config.HTTPAddr, app.Handler(), app.logger)
		if err := s.Run(ctx); err != nil {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()

	wg.Wait()
	app.logger.Info(ctx, "App stopped")
	return firstErr
}
