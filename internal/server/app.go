// Package server wires configuration, storage and both transports into a
// runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Shubhajeetgithub/expense-tracker-server/internal/logging"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/config"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/metrics"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/repositories/repomanager"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/rest"
	"github.com/Shubhajeetgithub/expense-tracker-server/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/Shubhajeetgithub/expense-tracker-server/internal/server/grpc"
)

// runner is one transport; Run blocks until ctx is cancelled.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	http     runner
	grpc     runner
}

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var archive services.Archiver
	s3a, err := services.NewS3Archive(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("archive init error: %w", err)
	}
	if s3a != nil {
		archive = s3a
		logger.Info(ctx, "sync archive enabled", "bucket", c.S3Bucket)
	}

	sessions := services.NewSessionService(db, rm, c, logger.With("module", "sessions"), m, archive)

	router := rest.NewRouter(sessions, logger.With("module", "rest"), rest.RouterOptions{
		CORSOrigin:     c.CORSOrigin,
		SecureCookies:  c.SecureCookies,
		AllowGuestSync: c.AllowGuestSync,
		Gatherer:       reg,
	})

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		sessions: sessions,
		http:     rest.NewHTTPServer(c.HTTPAddr, router, logger),
		grpc:     gs.NewGRPCServer(c.GRPCAddr, logger, sessions),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// start runs r and cancels the whole app if it fails.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, r runner) {
	if err := r.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until a signal arrives or either server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.http)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
