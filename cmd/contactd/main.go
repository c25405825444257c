// Command contactd serves the contact form API: rate-limited submission
// intake, email notification, and the admin submissions surface.
package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/arguslabs/argus"
	"github.com/arguslabs/argus/httpapi"
	"github.com/arguslabs/argus/notify"
	"github.com/arguslabs/argus/ratelimit"
	"github.com/arguslabs/argus/store"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	log := initLogger()

	st, err := openStore(log)
	if err != nil {
		log.Error("opening submission store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	limiter, closeLimiter, err := openLimiter(log)
	if err != nil {
		log.Error("opening rate limiter", "error", err)
		os.Exit(1)
	}
	defer closeLimiter()

	var geo *argus.GeoIPReader
	if path := os.Getenv("GEOIP_DB_PATH"); path != "" {
		geo, err = argus.NewGeoIPReader(path)
		if err != nil {
			log.Error("opening GeoIP database", "path", path, "error", err)
			os.Exit(1)
		}
		defer geo.Close()
	}

	mailer := notify.NewResend(
		os.Getenv("RESEND_API_KEY"),
		getEnv("EMAIL_FROM", "Contact Form <onboarding@resend.dev>"),
		os.Getenv("EMAIL_TO"),
		log,
	)
	if !mailer.Configured() {
		log.Warn("RESEND_API_KEY not set; submissions will be saved without email notification")
	}

	handler := httpapi.NewContactHandler(st, mailer, limiter, geo, log)
	handler.SetLimits(
		getEnvInt("CONTACT_ORIGIN_LIMIT", httpapi.DefaultOriginLimit),
		getEnvInt("CONTACT_IDENTITY_LIMIT", httpapi.DefaultIdentityLimit),
	)

	gate := argus.NewGate(adminTokenSource(), argus.RoleAdmin, log)

	throttle := httpapi.NewThrottle(
		rate.Limit(getEnvFloat("THROTTLE_RPS", 10)),
		getEnvInt("THROTTLE_BURST", 20),
		3*time.Minute,
		log,
	)
	defer throttle.Stop()

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Contact:        handler,
		Gate:           gate,
		Throttle:       throttle,
		AllowedOrigins: splitEnv("ALLOWED_ORIGINS"),
		Logger:         log,
	})

	addr := ":" + getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func initLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(getEnv("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if strings.ToLower(getEnv("LOG_FORMAT", "json")) == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func openStore(log *slog.Logger) (store.SubmissionStore, error) {
	switch driver := getEnv("STORE_DRIVER", "sqlite"); driver {
	case "memory":
		log.Warn("using in-memory submission store; data is lost on restart")
		return store.NewMemoryStore(), nil
	case "sqlite":
		path := getEnv("SQLITE_PATH", "contact.db")
		log.Info("submission store", "driver", driver, "path", path)
		return store.NewSQLite(path)
	case "mysql":
		log.Info("submission store", "driver", driver)
		return store.NewMySQLFromDSN(os.Getenv("MYSQL_DSN"))
	default:
		return nil, errors.New("unknown STORE_DRIVER: " + driver)
	}
}

// openLimiter prefers Redis when configured so multiple replicas share
// one window; otherwise it falls back to the in-process window.
func openLimiter(log *slog.Logger) (ratelimit.Checker, func(), error) {
	window := time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rw, err := ratelimit.NewRedisWindowFromAddr(
			addr,
			os.Getenv("REDIS_PASSWORD"),
			getEnvInt("REDIS_DB", 0),
			window,
		)
		if err != nil {
			return nil, nil, err
		}
		log.Info("rate limiter", "backend", "redis", "addr", addr, "window", window)
		return rw, func() { rw.Close() }, nil
	}

	w := ratelimit.NewWindow(ratelimit.NewMemoryRecords(), window)
	log.Info("rate limiter", "backend", "memory", "window", window)
	return w, w.Stop, nil
}

// adminTokenSource grants the admin role to bearers of ADMIN_TOKEN.
func adminTokenSource() argus.RoleSource {
	token := os.Getenv("ADMIN_TOKEN")
	return argus.RoleSourceFunc(func(ctx context.Context, role string) (bool, error) {
		if token == "" || role != argus.RoleAdmin {
			return false, nil
		}
		auth := argus.AuthorizationFromContext(ctx)
		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return false, nil
		}
		return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1, nil
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
