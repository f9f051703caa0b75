package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/faststore/accounts"
	"github.com/faststore/accounts/httpapi"
	"github.com/faststore/accounts/notify"
	"github.com/faststore/accounts/userstore"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file, using process environment")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	store, err := userstore.Open(dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer store.Close()

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	cfg := accounts.DefaultConfig()
	cfg.Token.Secret = []byte(os.Getenv("TOKEN_SECRET"))
	cfg.OTP.MasterSecret = []byte(os.Getenv("OTP_MASTER_SECRET"))

	sender, err := buildSender(log)
	if err != nil {
		log.Fatal().Err(err).Msg("mailer configuration invalid")
	}

	engine, err := accounts.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithSender(sender).
		WithAuditSink(accounts.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		log.Fatal().Err(err).Msg("engine configuration invalid")
	}
	defer engine.Close()

	router := httpapi.NewRouter(engine, log)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:           ":" + port,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown")
	}
}

// buildSender picks SMTP when configured, otherwise logs codes to
// stderr for local development.
func buildSender(log zerolog.Logger) (notify.Sender, error) {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Warn().Msg("SMTP_HOST unset, verification codes will not be delivered")
		return notify.NoOpSender{}, nil
	}

	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	})
}
