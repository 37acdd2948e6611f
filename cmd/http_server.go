package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/document-repository/internal"
	"github.com/frahmantamala/document-repository/internal/audit"
	auditPostgres "github.com/frahmantamala/document-repository/internal/audit/postgres"
	"github.com/frahmantamala/document-repository/internal/auth"
	authPostgres "github.com/frahmantamala/document-repository/internal/auth/postgres"
	"github.com/frahmantamala/document-repository/internal/document"
	documentPostgres "github.com/frahmantamala/document-repository/internal/document/postgres"
	"github.com/frahmantamala/document-repository/internal/mailer"
	"github.com/frahmantamala/document-repository/internal/transport"
	"github.com/frahmantamala/document-repository/internal/transport/rest"
	"github.com/frahmantamala/document-repository/internal/user"
	userPostgres "github.com/frahmantamala/document-repository/internal/user/postgres"
	"github.com/frahmantamala/document-repository/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server that exposes the document repository API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)
	appLogger := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	baseHandler := transport.NewBaseHandler(appLogger)

	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	auditService := audit.NewService(auditRepo, appLogger)
	auditHandler := audit.NewHandler(baseHandler, auditService)

	var resetMailer auth.ResetMailer
	if config.Mailer.SMTPHost != "" {
		resetMailer = mailer.NewSMTPMailer(config.Mailer, appLogger)
	} else {
		resetMailer = mailer.NewConsoleMailer(appLogger)
	}

	authRepo := authPostgres.NewRepository(gormDB)
	sessionRepo := authPostgres.NewSessionRepository(gormDB)
	sessionCodec := auth.NewSessionCodec(config.Security.SessionSecret, config.Security.SessionDuration)
	authService := auth.NewService(
		authRepo, authRepo, sessionRepo,
		sessionCodec,
		auditService,
		resetMailer,
		appLogger,
		config.Security.BCryptCost,
		config.Security.ResetTokenTTL,
		config.Server.BaseURL,
	)
	authHandler := auth.NewHandler(baseHandler, authService)

	userRepo := userPostgres.NewRepository(gormDB)
	userService := user.NewService(userRepo, auditService, appLogger, config.Security.BCryptCost)
	userHandler := user.NewHandler(baseHandler, userService)

	documentRepo := documentPostgres.NewRepository(gormDB)
	documentService := document.NewService(documentRepo, auditService, appLogger)
	documentHandler := document.NewHandler(baseHandler, documentService, config.Storage.MaxUploadBytes)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, authHandler, userHandler, auditHandler, documentHandler, config.Storage.MaxUploadBytes, appLogger)

	return &Dependencies{
		Config: config,
		DB:     db,
		Router: router,
		Logger: appLogger,
	}, nil
}

// initDB opens the pgx stdlib connection pool.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers the ORM over the already configured pool so both share one
// set of connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{})
}
