package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jimiolaniyan/floodguard/auth"
	"github.com/jimiolaniyan/floodguard/config"
	"github.com/jimiolaniyan/floodguard/logging"
	"github.com/jimiolaniyan/floodguard/migrations"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	accounts, closeStore, err := newRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("account store init failed", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	mailer := auth.NewSMTPMailer(auth.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	verifier, err := auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleCertsURL, &http.Client{Timeout: cfg.ExternalTimeout})
	if err != nil {
		logger.Fatal("google verifier init failed", zap.Error(err))
	}

	svc := auth.NewService(accounts, mailer, verifier, logger, auth.Options{
		BcryptCost:      cfg.BcryptCost,
		ExternalTimeout: cfg.ExternalTimeout,
	})

	router := httprouter.New()
	router.Handler(http.MethodPost, "/signup", auth.RegisterAccountHandler(svc, logger))
	router.Handler(http.MethodPost, "/signin", auth.LoginHandler(svc, logger))
	router.Handler(http.MethodPost, "/forgot-password", auth.ForgotPasswordHandler(svc, logger))
	router.Handler(http.MethodPost, "/google-signin", auth.GoogleSignInHandler(svc, logger))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           auth.RequestLogger(c.Handler(router), logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.Store))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func newRepository(ctx context.Context, cfg *config.Config) (auth.Repository, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return auth.NewAccountRepository(), func() {}, nil

	case config.StoreMongo:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		if err := client.Ping(cctx, nil); err != nil {
			return nil, nil, err
		}

		repo, err := auth.NewMongoAccountRepository(cctx, client.Database(cfg.MongoDatabase).Collection("accounts"))
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	case config.StorePostgres:
		db, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open error: %w", err)
		}
		if err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migration error: %w", err)
		}
		return auth.NewPostgresAccountRepository(db), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
