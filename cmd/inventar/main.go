package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/notify"
	"github.com/erazemk/inventar/internal/scheduler"
	"github.com/erazemk/inventar/internal/store"
	"github.com/erazemk/inventar/internal/web"
)

// shutdownTimeout bounds draining the server, the notification queue and
// the trace exporter on exit.
const shutdownTimeout = 10 * time.Second

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also appended to that file. The returned cleanup closes it.
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	cleanup := func() {}
	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(&levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}))
	return cleanup, nil
}

// flags holds command-line overrides. Empty values leave the configuration
// from the environment untouched.
type flags struct {
	envFile   string
	dbPath    string
	addr      string
	adminUser string
	logPath   string
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("inventar", flag.ContinueOnError)
	var f flags

	fs.StringVar(&f.envFile, "env", "", "")
	fs.StringVar(&f.envFile, "e", "", "")
	fs.StringVar(&f.dbPath, "db", "", "")
	fs.StringVar(&f.dbPath, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.adminUser, "user", "", "")
	fs.StringVar(&f.adminUser, "u", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: inventar [flags]

Flags:
  -e, -env <path>         env file to load (default: .env if present)
  -d, -db <path>          SQLite database path (default: inventar.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: stdout/stderr only)
  -h, -help               show this help and exit

Every setting can also be given as an INVENTAR_* environment variable.
Flags win over the environment.
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return &f, nil
}

func (f *flags) apply(cfg *config.Config) {
	if f.dbPath != "" {
		cfg.DBPath = f.dbPath
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.adminUser != "" {
		cfg.AdminUsername = f.adminUser
	}
	if f.logPath != "" {
		cfg.LogPath = f.logPath
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)

	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	if _, err := os.Stat(cfg.DBPath); errors.Is(err, os.ErrNotExist) {
		password, err := initDatabase(cfg.DBPath, cfg.AdminUsername)
		if err != nil {
			return fmt.Errorf("initializing database: %w", err)
		}
		printInitResult(cfg.DBPath, cfg.AdminUsername, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	slog.Info("database ready", "path", cfg.DBPath)

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return err
	}

	secret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}
	issuer := auth.NewIssuer(secret, cfg.TokenTTL)

	sinks := notify.Multi{notify.NewStore(database)}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout, cfg.WebhookRetries))
		slog.Info("webhook notifications enabled", "url", cfg.WebhookURL)
	}
	notifier := notify.NewAsync(sinks, cfg.NotifyQueueSize, slog.Default())

	svc := inventory.NewService(database, notifier,
		inventory.WithPolicy(cfg.Policy()),
		inventory.WithLogger(slog.Default()),
	)

	apiRouter := api.NewRouter(database, svc, issuer, api.NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst))
	webRouter, err := web.NewRouter(database, svc, issuer)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	mux := http.NewServeMux()
	if cfg.RequestTimeout > 0 {
		mux.Handle("/api/", http.TimeoutHandler(apiRouter, cfg.RequestTimeout, `{"error":"request timed out"}`))
	} else {
		mux.Handle("/api/", apiRouter)
	}
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sched := scheduler.New(svc, database, slog.Default())
	if err := sched.Start(scheduler.Schedules{
		Overdue:    cfg.OverdueSchedule,
		LowStock:   cfg.LowStockSchedule,
		TokenPurge: cfg.TokenPurgeSchedule,
	}); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr)
	serveErr := server.ListenAndServe()
	if errors.Is(serveErr, http.ErrServerClosed) {
		serveErr = nil
	}

	sched.Stop()

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := notifier.Close(drainCtx); err != nil {
		slog.Error("notification queue not drained", "error", err)
	}
	if err := shutdownTracing(drainCtx); err != nil {
		slog.Error("trace exporter shutdown failed", "error", err)
	}

	slog.Info("server stopped, closing database")
	return serveErr
}

// initDatabase creates a new database with the schema and an admin account,
// returning the generated admin password. The file is removed on failure.
func initDatabase(path, adminUsername string) (_ string, err error) {
	database, err := db.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		database.Close()
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := db.EnsureSchema(database); err != nil {
		return "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	if err := createAdmin(context.Background(), database, adminUsername, hash); err != nil {
		return "", err
	}
	return password, nil
}

func createAdmin(ctx context.Context, database *sql.DB, username, hash string) error {
	_, err := store.CreateUser(ctx, database, &model.User{
		Username:     username,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	return nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}
