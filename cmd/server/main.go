package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"keystone/internal/audit"
	auditkafka "keystone/internal/audit/store/kafka"
	auditmemory "keystone/internal/audit/store/memory"
	auditpostgres "keystone/internal/audit/store/postgres"
	"keystone/internal/identity"
	"keystone/internal/platform/config"
	"keystone/internal/platform/httpserver"
	"keystone/internal/platform/logger"
	"keystone/internal/platform/metrics"
	"keystone/internal/platform/redis"
	"keystone/internal/token"
	"keystone/internal/token/revocation"
	httptransport "keystone/internal/transport/http"
	"keystone/pkg/domain"
	"keystone/pkg/platform/httperr"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages; everything here is selection
// (which store, which sink) and shutdown ordering.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	normalizer := httperr.New(log, cfg.IsProduction())
	jwtService := token.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	principals, cleanupPrincipals, err := buildPrincipalStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanupPrincipals()

	auditStore, auditQuery, cleanupAudit, err := buildAuditStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanupAudit()

	revocations, cleanupRevocations, err := buildRevocationList(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanupRevocations()

	validator := identity.NewValidator(jwtService, principals, revocations)
	recorder := audit.NewRecorder(auditStore, log,
		audit.WithQueueSize(cfg.AuditQueueSize),
		audit.WithMetrics(m),
	)

	handlerOpts := []httptransport.HandlerOption{
		httptransport.WithAdminToken(cfg.AdminToken),
	}
	if revocations != nil {
		handlerOpts = append(handlerOpts, httptransport.WithRevocations(revocations))
	}
	if auditQuery != nil {
		handlerOpts = append(handlerOpts, httptransport.WithAuditQuery(auditQuery))
	}

	handler := httptransport.NewHandler(log, normalizer, m, validator, principals, jwtService, recorder, handlerOpts...)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("starting keystone", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildPrincipalStore selects postgres when a DSN is configured, otherwise
// an in-memory store seeded with development accounts.
func buildPrincipalStore(ctx context.Context, cfg config.Server, log *slog.Logger) (identity.CredentialStore, func(), error) {
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("principal store: postgres")
		return identity.NewPostgres(pool), pool.Close, nil
	}

	store := identity.NewInMemoryStore()
	if err := identity.Seed(ctx, store, devSeeds()); err != nil {
		return nil, nil, err
	}
	log.Warn("principal store: in-memory with development seeds")
	return store, func() {}, nil
}

// buildAuditStore selects the sink in priority order: Kafka, postgres,
// in-memory. Only the latter two support the admin query surface.
func buildAuditStore(ctx context.Context, cfg config.Server, log *slog.Logger) (audit.Store, audit.QueryStore, func(), error) {
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Info("audit sink: kafka", "topic", cfg.KafkaTopic)
		return sink, nil, sink.Close, nil
	}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		store := auditpostgres.New(db)
		log.Info("audit sink: postgres")
		return store, store, func() { _ = db.Close() }, nil
	}

	store := auditmemory.New()
	log.Warn("audit sink: in-memory, records lost on restart")
	return store, store, func() {}, nil
}

// buildRevocationList wires Redis-backed revocation when configured. A nil
// list disables the revocation check entirely.
func buildRevocationList(ctx context.Context, cfg config.Server, log *slog.Logger) (revocation.RevocationList, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn("token revocation disabled: no redis configured")
		return nil, func() {}, nil
	}

	client, err := redis.Connect(ctx, cfg.Redis())
	if err != nil {
		return nil, nil, err
	}
	log.Info("token revocation: redis")
	return revocation.NewRedisList(client), func() { _ = client.Close() }, nil
}

// devTenantID is the fixed tenant all development seed accounts belong to.
var devTenantID = uuid.MustParse("6b2a9f04-1f3e-4c27-9a15-08f1d2c4a7e9")

// devSeeds provisions one account per role so the policy matrix can be
// exercised out of the box. Never used when postgres is configured.
func devSeeds() []identity.SeedPrincipal {
	tenant := domain.TenantID(devTenantID)
	return []identity.SeedPrincipal{
		{Email: "root@keystone.local", Password: "root-password", Role: domain.RoleSuperAdmin},
		{Email: "admin@acme.test", Password: "admin-password", Role: domain.RoleTenantAdmin, TenantID: &tenant},
		{Email: "user@acme.test", Password: "user-password", Role: domain.RoleEndUser, TenantID: &tenant},
		{Email: "guest@acme.test", Password: "guest-password", Role: domain.RoleCollaborator, TenantID: &tenant},
	}
}
