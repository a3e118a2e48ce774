package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bookshelf/account-service/internal/api"
	"github.com/bookshelf/account-service/internal/api/handler"
	"github.com/bookshelf/account-service/internal/core/domain"
	"github.com/bookshelf/account-service/internal/core/ports"
	"github.com/bookshelf/account-service/internal/core/service"
	"github.com/bookshelf/account-service/internal/infrastructure/config"
	mongostore "github.com/bookshelf/account-service/internal/infrastructure/db/mongo"
	redisstore "github.com/bookshelf/account-service/internal/infrastructure/db/redis"
	"github.com/bookshelf/account-service/internal/infrastructure/queue"
	"github.com/bookshelf/account-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Account Service API
// @version      1.0
// @description  Registration, login and role-scoped session verification.
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	seedAdmin := flag.Bool("seed-admin", false, "create the Admin identity from ADMIN_USERNAME/ADMIN_PASSWORD/ADMIN_EMAIL and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "account-service"})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "account-service",
	})

	// --- Identity store ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "account-service",
		Timeout:  cfg.CallTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("identity store unreachable")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	identities := mongostore.NewIdentityRepository(db, cfg.CallTimeout)
	if err := identities.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure identity indexes")
	}

	// --- Session cache ---
	redisClient, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.CallTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("session cache unreachable")
	}
	defer redisClient.Close()

	sessions := redisstore.NewSessionCache(redisClient, cfg.Auth.SessionTTL, cfg.CallTimeout)

	// --- Audit trail ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers,
		mongostore.NewAuthEventRepository(db, cfg.CallTimeout),
		logger.Component("audit"))
	dispatcher.Start(workerCtx)
	defer func() {
		cancelWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	creds := service.NewCredentialVerifier(cfg.Auth.BcryptCost)
	tokens, err := service.NewJWTIssuer(service.TokenConfig{
		UserSecret:  cfg.Auth.UserSecret,
		AdminSecret: cfg.Auth.AdminSecret,
		TTL:         cfg.Auth.TokenTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token issuer")
	}

	authService := service.NewAuthService(identities, sessions, creds, tokens, dispatcher, logger.Component("auth"))
	accountService := service.NewAccountService(identities, sessions, creds, dispatcher, logger.Component("account"))
	resolver := service.NewSessionVerifier(tokens, sessions, logger.Component("session"))

	if *seedAdmin {
		if err := seedAdminIdentity(ctx, authService, cfg.Auth, log); err != nil {
			log.Fatal().Err(err).Msg("seed admin")
		}
		return
	}

	e := api.NewRouter(api.Dependencies{
		AuthService:    authService,
		AccountService: accountService,
		Resolver:       resolver,
		Readiness: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(redisClient),
		},
		APIVersion:        cfg.APIVersion,
		Logger:            logger.Component("http"),
		MetricsRegisterer: prometheus.DefaultRegisterer,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("version", cfg.APIVersion).Msg("account service starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("account service stopped")
}

// seedAdminIdentity registers the bootstrap Admin. An existing username is
// not an error so the command can run on every deploy.
func seedAdminIdentity(ctx context.Context, auth ports.AuthService, cfg config.AuthConfig, log zerolog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return errors.New("ADMIN_USERNAME and ADMIN_PASSWORD are required")
	}

	admin, err := auth.Register(ctx, ports.RegisterInput{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		if de, ok := domain.AsError(err); ok && de.Kind == domain.KindValidationFailed && hasField(de, "username") {
			log.Info().Str("username", cfg.AdminUsername).Msg("admin already present")
			return nil
		}
		return err
	}

	log.Info().Str("username", admin.Username).Str("id", admin.ID).Msg("admin created")
	return nil
}

func hasField(err *domain.Error, field string) bool {
	for _, f := range err.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
