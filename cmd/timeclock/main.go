package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joscoffee/timeclock/internal/application"
	"github.com/joscoffee/timeclock/internal/config"
	httptransport "github.com/joscoffee/timeclock/internal/http"
	"github.com/joscoffee/timeclock/internal/logging"
	"github.com/joscoffee/timeclock/internal/persistence/sqlite"
)

func main() {
	hashSecret := flag.Bool("hash-secret", false, "read an admin secret from stdin, print its argon2id hash for TIMECLOCK_ADMIN_PASS and exit")
	flag.Parse()

	if *hashSecret {
		if err := printSecretHash(os.Stdin, os.Stdout, application.DefaultArgon2idParams); err != nil {
			fmt.Fprintln(os.Stderr, "hash-secret:", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stdout, slog.LevelInfo).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger, time.Now)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("time clock API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		app.Close()
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// app is the fully wired service.
type app struct {
	handler http.Handler
	storage *sqlite.Storage
	logger  *slog.Logger
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	storageConfig := sqlite.DefaultConfig(cfg.SQLiteDSN)
	storageConfig.BusyTimeout = cfg.BusyTimeout
	storageConfig.Retry.MaxRetries = cfg.StorageRetries

	storage, err := sqlite.Open(ctx, storageConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	idGenerator := uuid.NewString

	roster := newRosterRepositoryAdapter(storage)
	ledger := newShiftLedgerAdapter(storage)

	gate := application.NewAccessGateWithLogger(cfg.AdminSecret, logger)
	if !gate.Configured() {
		logger.Warn("admin secret is not configured; admin endpoints will answer 500")
	}

	punchService := application.NewPunchServiceWithLogger(roster, ledger, idGenerator, now, logger)
	punchService.SetAppendRetries(cfg.StorageRetries)
	rosterService := application.NewRosterServiceWithLogger(gate, roster, ledger, idGenerator, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Punch:      httptransport.NewPunchHandler(punchService, logger),
		Admin:      httptransport.NewAdminHandler(rosterService, logger),
		Ping:       httptransport.NewPingHandler(now),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return &app{handler: router, storage: storage, logger: logger}, nil
}

// Close releases the storage. It is safe to call more than once.
func (a *app) Close() {
	if a == nil || a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		a.logger.Error("failed to close storage", "error", err)
	}
	a.storage = nil
}

// printSecretHash reads one line from in and writes its argon2id PHC string to out.
func printSecretHash(in io.Reader, out io.Writer, params application.Argon2idParams) error {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return errors.New("no secret on stdin")
	}

	hashed, err := application.HashSecret(secret, params)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hashed)
	return err
}
