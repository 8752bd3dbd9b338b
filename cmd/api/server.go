package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/5w1tchy/pwcheck-api/internal/api/handlers"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/analyze"
	historyh "github.com/5w1tchy/pwcheck-api/internal/api/handlers/history"
	"github.com/5w1tchy/pwcheck-api/internal/api/handlers/session"
	settingsh "github.com/5w1tchy/pwcheck-api/internal/api/handlers/settings"
	mw "github.com/5w1tchy/pwcheck-api/internal/api/middlewares"
	"github.com/5w1tchy/pwcheck-api/internal/api/router"
	"github.com/5w1tchy/pwcheck-api/internal/logging"
	"github.com/5w1tchy/pwcheck-api/internal/maintenance"
	"github.com/5w1tchy/pwcheck-api/internal/metrics"
	"github.com/5w1tchy/pwcheck-api/internal/metrics/historyqueue"
	"github.com/5w1tchy/pwcheck-api/internal/repository/sqlconnect"
	jwtutil "github.com/5w1tchy/pwcheck-api/internal/security/jwt"
	"github.com/5w1tchy/pwcheck-api/internal/security/password"
	s3store "github.com/5w1tchy/pwcheck-api/internal/storage/s3"
	"github.com/5w1tchy/pwcheck-api/internal/store/history"
	"github.com/5w1tchy/pwcheck-api/internal/store/settings"
	"github.com/5w1tchy/pwcheck-api/internal/validate"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	log, err := logging.New(appEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := validate.Env(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	for _, w := range validate.HardeningWarnings(appEnv) {
		log.Warn("hardening", zap.String("warning", w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	db, err := sqlconnect.ConnectDB()
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := sqlconnect.EnsureSchema(ctx, db); err != nil {
		log.Fatal("schema setup failed", zap.Error(err))
	}

	rdb, err := newRedis()
	if err != nil {
		log.Fatal("redis config", zap.Error(err))
	}
	if rdb != nil {
		if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
			log.Warn("redis unreachable, continuing without shared cache and rate limits", zap.Error(err))
		} else {
			log.Info("connected to redis")
		}
	} else {
		log.Warn("redis not configured; caches and rate limits are local or disabled")
	}

	seed := loadWordlist(ctx, log)

	// --- domain ---
	settingsProvider := settings.NewProvider(settings.NewStore(db), rdb, seed, log)
	historyStore := history.NewStore(db)
	queue := historyqueue.Start(historyStore, log.Named("historyqueue"), historyqueue.DefaultOptions())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)
	metrics.RegisterQueue(reg, queue.Dropped, queue.Failed)

	signer := jwtutil.NewSigner(jwtutil.LoadConfig())

	maintenance.StartHistoryRetention(ctx, historyStore, log.Named("retention"),
		envInt("HISTORY_KEEP", 50), envStr("HISTORY_RETENTION_AT", "03:00"), envStr("HISTORY_RETENTION_TZ", "UTC"))

	// --- http ---
	health := map[string]handlers.Pinger{"db": db}
	if rdb != nil {
		health["redis"] = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	analyzeLimit := mw.NewRedisSlidingWindow(rdb, log, envInt("ANALYZE_PER_MINUTE", 120), time.Minute, mw.PerSessionKey("rl:analyze"))

	api := router.Router(router.Deps{
		Sessions:         session.NewHandler(signer, log),
		Analyze:          analyze.NewHandler(settingsProvider, queue, collector, log),
		Settings:         settingsh.NewHandler(settingsProvider, log),
		History:          historyh.NewHandler(historyStore, queue, log),
		Health:           handlers.Healthz(health),
		Metrics:          promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Verifier:         signer,
		SessionIssueGate: mw.SessionIssueLimit(rdb, log),
		AnalyzeGate:      analyzeLimit.Middleware,
	})

	tb := mw.NewRedisTokenBucket(rdb, log, 5, 20, mw.PerIPKey("tb"))
	sw := mw.NewRedisSlidingWindow(rdb, log, 3000, 60*time.Minute, mw.PerIPKey("sw"))

	secureMux := mw.Apply(api,
		mw.Recovery(log),
		mw.RequestID,
		mw.AccessLog(log.Named("http"), collector),
		mw.Cors(log, mw.AllowedOrigins()),
		mw.ResponseTime,
		mw.SecurityHeaders,
		mw.HPP(mw.DefaultHPPOptions()),
		mw.BodySizeLimit(mw.MaxBodyBytes()),
		tb.Middleware,
		sw.Middleware,
		mw.Compression,
	)

	server := &http.Server{
		Addr:              ":" + envStr("PORT", "3000"),
		Handler:           secureMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	go func() {
		cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
		log.Info("server listening", zap.String("addr", server.Addr), zap.Bool("tls", cert != ""))
		var err error
		if cert != "" {
			err = server.ListenAndServeTLS(cert, key)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", zap.Error(err))
	}
	queue.Shutdown()
	closeQuietly(log, db, rdb)
}

// loadWordlist returns the embedded seed, or the S3 object named by WORDLIST_S3_KEY when it loads.
func loadWordlist(ctx context.Context, log *zap.Logger) password.Wordlist {
	key := os.Getenv("WORDLIST_S3_KEY")
	if key == "" {
		return password.DefaultWordlist()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := s3store.NewClient(ctx)
	if err == nil {
		var words []string
		if words, err = client.LoadWordlist(ctx, key); err == nil {
			log.Info("wordlist loaded from object storage", zap.String("key", key), zap.Int("entries", len(words)))
			return password.NewWordlist(words, false)
		}
	}
	log.Warn("wordlist load failed, using embedded seed", zap.String("key", key), zap.Error(err))
	return password.DefaultWordlist()
}

func closeQuietly(log *zap.Logger, db *sql.DB, rdb *redis.Client) {
	if err := db.Close(); err != nil {
		log.Warn("db close", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
