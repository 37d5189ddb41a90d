package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/felicity-events/felicity-api/internal/api"
	"github.com/felicity-events/felicity-api/internal/config"
	"github.com/felicity-events/felicity-api/internal/db"
	"github.com/felicity-events/felicity-api/internal/logger"
	"github.com/felicity-events/felicity-api/internal/notify"
	"github.com/felicity-events/felicity-api/internal/realtime"
	"github.com/felicity-events/felicity-api/internal/repository"
)

const shutdownTimeout = 15 * time.Second

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos := repository.NewSet(postgresDB)
	executor := notify.NewJobExecutor(repos.Registrations, repos.Users, repos.Events, repos.Organizers, newMailer(conf), notify.NewWebhook(conf.Notify.Timeout))

	dispatcher, closeDispatcher, err := newDispatcher(ctx, conf, executor)
	if err != nil {
		return fmt.Errorf("failed to initialize notifications -> %w", err)
	}
	defer closeDispatcher()

	relay, closeRelay, err := newRelay(ctx, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize realtime relay -> %w", err)
	}
	defer closeRelay()

	s := api.NewServer(conf, repos, dispatcher, relay)

	if err = s.Auth.EnsureAdmin(ctx, conf.Admin.Email, conf.Admin.Password); err != nil {
		return fmt.Errorf("failed to seed the admin account -> %w", err)
	}

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Hub.Run(ctx)
		return nil
	})
	if conf.Reconciler.Enabled {
		g.Go(func() error {
			s.Reconciler.Run(ctx)
			return nil
		})
	}
	g.Go(func() error {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newMailer(conf *config.AppConfig) notify.Mailer {
	if conf.SMTP.Enabled {
		return notify.NewSMTPMailer(conf.SMTP)
	}

	return notify.LogMailer{}
}

// newDispatcher picks RabbitMQ when enabled, so side effects survive restarts
// and are shared between instances. Otherwise jobs run on a local worker pool.
func newDispatcher(ctx context.Context, conf *config.AppConfig, exec notify.Executor) (notify.Dispatcher, func(), error) {
	if !conf.RabbitMQ.Enabled {
		local := notify.NewLocalDispatcher(exec, conf.Notify.Workers, conf.Notify.QueueSize, conf.Notify.Timeout)
		return local, local.Stop, nil
	}

	client, err := notify.NewRabbitClient(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange, conf.RabbitMQ.Queue)
	if err != nil {
		return nil, nil, fmt.Errorf("notify.NewRabbitClient -> %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	consumer := notify.NewConsumer(client, exec, conf.Notify.Timeout)
	if err = consumer.Start(consumeCtx); err != nil {
		cancel()
		client.Close()
		return nil, nil, fmt.Errorf("consumer.Start -> %w", err)
	}

	closeFn := func() {
		cancel()
		consumer.Wait()
		client.Close()
	}

	return notify.NewRabbitDispatcher(client, conf.Notify.Timeout), closeFn, nil
}

func newRelay(ctx context.Context, conf *config.AppConfig) (realtime.Relay, func(), error) {
	if !conf.Redis.Enabled {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("client.Ping -> %w", err)
	}

	closeFn := func() {
		_ = client.Close()
	}

	return realtime.NewRedisRelay(client, conf.Redis.Channel), closeFn, nil
}
