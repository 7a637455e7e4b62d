package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/internal/config"
	"github.com/MrEthical07/authcore/internal/logging"
	"github.com/MrEthical07/authcore/internal/server"
	"github.com/MrEthical07/authcore/mail"
	"github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/store/memory"
	"github.com/MrEthical07/authcore/store/redisstore"
	"github.com/MrEthical07/authcore/store/sqlstore"
)

func main() {
	configPath := flag.String("config", os.Getenv("AUTHD_CONFIG"), "path to a TOML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "authd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, stdout)
	log := logging.NewSlogLogger(logger)

	engineCfg, err := cfg.Engine()
	if err != nil {
		return err
	}

	builder := authcore.New().
		WithConfig(engineCfg).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder.WithAuditSink(authcore.NewSlogSink(logger.With("component", "audit")))
	}

	// -------- CREDENTIALS --------
	switch cfg.Storage.Credentials {
	case config.BackendPostgres, config.BackendSQLite:
		db, closeDB, err := openDatabase(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		defer closeDB()

		dialect, err := sqlstore.ParseDialect(cfg.Storage.Credentials)
		if err != nil {
			return err
		}
		if cfg.Storage.Migrate {
			if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		builder.WithCredentialStore(sqlstore.NewCredentialStore(db, dialect))
	default:
		log.Warn(ctx, "using in-memory credential store; accounts are lost on restart")
		builder.WithCredentialStore(memory.NewCredentialStore())
	}

	// -------- TOKENS & CHALLENGES --------
	if cfg.UsesRedis() {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		builder.WithRedis(client)

		if cfg.Storage.Tokens == config.BackendRedis {
			builder.WithRevocationRegistry(redisstore.NewRevocationRegistry(client, cfg.Redis.RevokedPrefix, cfg.Redis.RetainRevoked.Duration))
		}
		if cfg.Storage.Challenges == config.BackendRedis {
			builder.WithChallengeStore(redisstore.NewChallengeStore(client, cfg.Redis.ChallengePrefix, engineCfg.SecondFactor.TTL))
		}
	}
	if cfg.Storage.Tokens == config.BackendMemory {
		builder.WithRevocationRegistry(memory.NewRevocationRegistry())
	}
	if cfg.Storage.Challenges == config.BackendMemory {
		builder.WithChallengeStore(memory.NewChallengeStore(memory.WithTTL(engineCfg.SecondFactor.TTL)))
	}

	// -------- MAIL --------
	if cfg.Mail.PostmarkToken != "" {
		sender, err := mail.NewPostmarkSender(mail.PostmarkConfig{
			BaseURL:       cfg.Mail.PostmarkBaseURL,
			ServerToken:   cfg.Mail.PostmarkToken,
			From:          cfg.Mail.From,
			MessageStream: cfg.Mail.MessageStream,
			Timeout:       cfg.Mail.Timeout.Duration,
		}, nil)
		if err != nil {
			return err
		}
		builder.WithMailer(sender)
	} else {
		log.Warn(ctx, "no postmark token configured; login codes are written to stderr")
		builder.WithMailer(mail.NewWriterSender(stderr))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := server.Options{
		CookieName:    cfg.Server.CookieName,
		SecureCookies: cfg.Server.SecureCookies,
		Logger:        logger,
	}
	if cfg.Metrics.Enabled {
		opts.Metrics = prometheus.NewExporter(engine).Handler()
	}

	log.Info(ctx, "starting authd",
		"credentials", cfg.Storage.Credentials,
		"tokens", cfg.Storage.Tokens,
		"challenges", cfg.Storage.Challenges,
	)
	return server.New(engine, opts).Serve(ctx, cfg.Server.Addr, cfg.Server.ReadHeaderTimeout.Duration, cfg.Server.ShutdownTimeout.Duration)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: logging.ParseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}
