package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	httpadp "loanlink-backend/internal/adapter/http"
	"loanlink-backend/internal/adapter/identity"
	"loanlink-backend/internal/adapter/repository/gormrepo"
	"loanlink-backend/internal/adapter/repository/mongorepo"
	"loanlink-backend/internal/adapter/stripepay"
	"loanlink-backend/internal/config"
	"loanlink-backend/internal/domain/uow"
	"loanlink-backend/internal/infrastructure/cache"
	"loanlink-backend/internal/infrastructure/db"
	"loanlink-backend/internal/infrastructure/logger"
	"loanlink-backend/internal/infrastructure/metrics"
	"loanlink-backend/internal/infrastructure/mongodb"
	appuc "loanlink-backend/internal/usecase/application"
	loanuc "loanlink-backend/internal/usecase/loan"
	payuc "loanlink-backend/internal/usecase/payment"
	useruc "loanlink-backend/internal/usecase/user"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.AppEnv,
		ServiceName: "loanlink-api",
	})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	// money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	repos, tx, pingStore, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	verifier, err := identity.NewJWTVerifier(identity.Options{
		Issuer:       cfg.AuthIssuer,
		Audience:     cfg.AuthAudience,
		PublicKeyPEM: cfg.AuthPublicKey,
		JWKSURL:      cfg.AuthJWKSURL,
		Timeout:      cfg.ExternalCallTimeout,
	})
	if err != nil {
		log.Fatal("identity verifier", zap.Error(err))
	}

	payments := stripepay.New(stripepay.Options{
		SecretKey: cfg.StripeSecretKey,
		APIURL:    cfg.StripeAPIURL,
		Timeout:   cfg.ExternalCallTimeout,
	})

	m := metrics.New()

	e := httpadp.NewRouter(httpadp.RouterConfig{
		Logger:         log,
		Metrics:        m,
		Verifier:       verifier,
		Users:          repos.Users,
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		AuthCookieName: cfg.AuthCookieName,
		AuthTimeout:    cfg.ExternalCallTimeout,

		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"store": pingStore,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		UserH: httpadp.NewUserHandler(useruc.NewUsecase(repos.Users, tx, log, cfg.BootstrapAdminEmail)),
		LoanH: httpadp.NewLoanHandler(loanuc.NewUsecase(repos.Loans, tx, log, m, cfg.PublicLoansLimit)),
		ApplicationH: httpadp.NewApplicationHandler(appuc.NewUsecase(
			repos.Applications, repos.Loans, repos.Users, tx, payments,
			cfg.ApplicationFeeCents, cfg.PaymentCurrency, log, m, cfg.ExternalCallTimeout,
		)),
		PaymentH: httpadp.NewPaymentHandler(payuc.NewUsecase(
			repos.Applications, payments, log, cfg.ApplicationFeeCents, cfg.PaymentCurrency, cfg.ExternalCallTimeout,
		)),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

// openStore selects the repositories for STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (uow.Repos, uow.UnitOfWork, httpadp.Check, func()) {
	if cfg.StoreDriver == config.DriverMongo {
		client, mdb, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatal("mongo", zap.Error(err))
		}
		if err := mongorepo.EnsureIndexes(ctx, mdb); err != nil {
			log.Fatal("mongo indexes", zap.Error(err))
		}
		repos := mongorepo.Repos(mdb, mongodb.NewRegistry())
		ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		return repos, mongorepo.NewMongoUoW(repos), ping, func() { _ = client.Disconnect(context.Background()) }
	}

	gdb, err := db.OpenGorm(cfg.StoreDriver, cfg.DSN(), db.ParseLogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	sqlDB, _ := gdb.DB()
	return gormrepo.Repos(gdb), gormrepo.NewGormUoW(gdb), sqlDB.PingContext, func() { _ = sqlDB.Close() }
}
