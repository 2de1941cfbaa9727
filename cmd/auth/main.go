package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userauth/internal/config"
	"userauth/internal/events"
	"userauth/internal/identity"
	"userauth/internal/jwtsigner"
	"userauth/internal/observability/logging"
	"userauth/internal/observability/metrics"
	impl "userauth/internal/service/impl"
	"userauth/internal/store"
	httpx "userauth/internal/transport/http"
	"userauth/pkg/db"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: "userauth",
		Environment: env,
		Level:       os.Getenv("LOG_LEVEL"),
	})
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	logger = logging.NewLogger(logging.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	logger.Info("starting service")

	metrics.MustRegister(prometheus.DefaultRegisterer, cfg.ServiceName)

	// 1) DB
	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	st := store.New(gdb)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		logger.Error("migrate", "error", err)
		os.Exit(1)
	}

	// 2) Services
	signer, err := newSigner(cfg)
	if err != nil {
		logger.Error("signing key", "error", err)
		os.Exit(1)
	}

	pub := events.LogPublisher{Logger: logger}
	profiles := impl.NewProfileSync(impl.ProfileConfig{DefaultAvatar: cfg.DefaultAvatar})
	identities := impl.NewIdentityServiceImpl(st, identity.NewNormalizer(identity.Config{MaxFieldLength: cfg.MaxFieldLength}), profiles, pub)
	ts := impl.NewTokenServiceImpl(impl.TokenConfig{AccessTTL: cfg.AccessTTL, RefreshTTL: cfg.RefreshTTL}, st, signer)
	ts.Events = pub
	as := impl.NewAuthServiceImpl(identities, impl.NewPasswordServiceArgon2id(), impl.NewPasswordPolicy(), ts)
	ps := impl.NewProfileServiceImpl(st, profiles, pub)

	// 3) HTTP router
	mux := httpx.NewRouter(httpx.Services{
		Auth:       as,
		Tokens:     ts,
		Identities: identities,
		Profiles:   ps,
		Signer:     signer,
	}, httpx.Options{
		TrustProxy:     cfg.TrustProxy,
		RequestTimeout: cfg.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		CORSOrigins:    cfg.CORSOrigins,
	})

	go purgeBlacklist(ctx, st, cfg.BlacklistPurgeInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	slog.Info("auth service listening", "addr", srv.Addr, "issuer", cfg.Issuer, "alg", cfg.SigningAlg)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func newSigner(cfg config.Config) (*jwtsigner.Signer, error) {
	if cfg.SigningAlg == config.AlgEdDSA {
		return jwtsigner.NewFromBase64(cfg.SigningKey, cfg.SigningKeyID, cfg.Issuer, cfg.Audience)
	}
	return jwtsigner.NewHS256([]byte(cfg.SigningKey), cfg.SigningKeyID, cfg.Issuer, cfg.Audience)
}

// purgeBlacklist drops blacklist rows whose token has expired anyway.
func purgeBlacklist(ctx context.Context, st *store.Store, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := st.Blacklist().PurgeExpired(ctx, now.UTC())
			if err != nil {
				slog.Error("purge blacklist", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("purged blacklisted tokens", "count", n)
			}
		}
	}
}
