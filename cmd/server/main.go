package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"auction-marketplace/backend/internal/apperrors"
	"auction-marketplace/backend/internal/audit"
	auditrepo "auction-marketplace/backend/internal/audit/repository"
	"auction-marketplace/backend/internal/authz"
	"auction-marketplace/backend/internal/config"
	"auction-marketplace/backend/internal/db"
	identityrepo "auction-marketplace/backend/internal/identity/repository"
	identityservice "auction-marketplace/backend/internal/identity/service"
	"auction-marketplace/backend/internal/ratelimit"
	"auction-marketplace/backend/internal/security"
	"auction-marketplace/backend/internal/server"
	sessionstore "auction-marketplace/backend/internal/session/store"
	"auction-marketplace/backend/internal/telemetry"
	"auction-marketplace/backend/internal/telemetry/loki"
	"auction-marketplace/backend/internal/telemetry/otel"
	"auction-marketplace/backend/internal/telemetry/producer"
)

const serviceName = "marketplace-auth"

// devTokenSecret is used only when APP_ENV is not production and TOKEN_SECRET
// is unset. Config.Load rejects an empty secret under production posture.
const devTokenSecret = "dev-only-insecure-token-secret"

const sessionSweepInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL must be set")
	}
	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer sqlDB.Close()

	secret := cfg.TokenSecret
	if secret == "" {
		log.Println("TOKEN_SECRET unset, using insecure development secret")
		secret = devTokenSecret
	}
	tokens, err := security.NewTokenProvider([]byte(secret), cfg.TokenIssuer, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	var sessions sessionstore.Store
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer client.Close()
		sessions = sessionstore.NewRedisStore(client, cfg.SessionMaxIdleDuration())
		log.Printf("sessions: redis backend at %s", cfg.RedisAddr)
	default:
		sessions = sessionstore.NewMemoryStore()
		log.Println("sessions: in-memory backend")
	}

	// Security-event export pipeline: Kafka and OTLP fan-out, each behind a
	// breaker so a dead broker fails fast instead of stacking timeouts.
	var pipelines telemetry.MultiEmitter
	kafkaProducer, err := producer.NewKafkaProducer(cfg.SecurityKafkaBrokersList(), cfg.SecurityKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		pipelines = append(pipelines, telemetry.NewGuardedEmitter("kafka", kafkaProducer))
		log.Printf("security events: kafka topic %s", cfg.SecurityKafkaTopic)
	}
	if cfg.OTLPEndpoint != "" {
		pipelines = append(pipelines, telemetry.NewGuardedEmitter("otlp", otel.NewEventEmitter(providers.LoggerProvider)))
	}
	var auditEmitter audit.Emitter
	if len(pipelines) > 0 {
		auditEmitter = telemetry.AsyncAdapter{Target: pipelines}
	}

	auditRepo := auditrepo.NewPostgresRepository(sqlDB)
	secLogger := audit.NewSecurityLogger(auditRepo, auditEmitter)

	// The auth flows log reason-coded security events themselves, so the
	// error logger's authentication mirror stays unwired here.
	var errSink apperrors.Sink
	if s := loki.NewSink(cfg.LokiURL); s != nil {
		errSink = s
		log.Printf("error log: forwarding to loki at %s", cfg.LokiURL)
	}
	errLog := apperrors.NewLogger(cfg.IsProduction(), errSink, nil)

	evaluator, err := authz.NewOPAEvaluator(ctx)
	if err != nil {
		log.Fatalf("authz: %v", err)
	}

	authSvc := identityservice.NewAuthService(
		identityrepo.NewPostgresRepository(sqlDB),
		sessions,
		hasher,
		tokens,
		secLogger,
	)

	limiter := ratelimit.NewLimiter()

	srv := server.New(cfg.HTTPAddr, server.Deps{
		Auth:         authSvc,
		Tokens:       tokens,
		Sessions:     sessions,
		Limiter:      limiter,
		Authz:        evaluator,
		ErrLog:       errLog,
		AuditRepo:    auditRepo,
		HealthPinger: sqlDB,
		Production:   cfg.IsProduction(),
	})

	go runJanitors(ctx, limiter, sessions, cfg.SessionMaxIdleDuration())

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async event emits finish before tearing down exporters.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("server stopped")
}

// runJanitors evicts expired rate-limit windows and idle sessions on fixed
// schedules until ctx is cancelled.
func runJanitors(ctx context.Context, limiter *ratelimit.Limiter, sessions sessionstore.Store, maxIdle time.Duration) {
	limiterTick := time.NewTicker(ratelimit.CleanupInterval)
	defer limiterTick.Stop()
	sessionTick := time.NewTicker(sessionSweepInterval)
	defer sessionTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-limiterTick.C:
			if n := limiter.Cleanup(); n > 0 {
				log.Printf("rate limiter: evicted %d expired windows", n)
			}
		case <-sessionTick.C:
			n, err := sessions.SweepExpired(ctx, maxIdle)
			if err != nil {
				log.Printf("session sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("session sweep: removed %d idle sessions", n)
			}
		}
	}
}
