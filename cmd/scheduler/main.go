package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/tutor_scheduler/internal/app"
	"github.com/Freeeeeet/tutor_scheduler/internal/config"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller"
	"github.com/Freeeeeet/tutor_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/tutor_scheduler/internal/notification"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/base"
	"github.com/Freeeeeet/tutor_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/tutor_scheduler/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, zap.String("app", cfg.AppName))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Scheduler stopped with error", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
}

// storage репозитории выбранного драйвера
type storage struct {
	tx        service.Transactor
	slots     service.SlotRepository
	bookings  service.BookingRepository
	teachers  service.TeacherDirectory
	students  service.StudentDirectory
	recurring service.RecurringRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		store := memory.NewStore()
		memory.SeedDemo(store.Directory())
		logger.Warn("Using in-memory storage, data is lost on restart")
		return &storage{
			tx:        store,
			slots:     store.Slots(),
			bookings:  store.Bookings(),
			teachers:  store.Directory(),
			students:  store.Directory(),
			recurring: store.Recurring(),
			close:     func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	db := base.NewRepository(pool)
	directory := repository.NewDirectory(db)
	return &storage{
		tx:        db,
		slots:     repository.NewSlotRepository(db),
		bookings:  repository.NewBookingRepository(db),
		teachers:  directory,
		students:  directory,
		recurring: repository.NewRecurringRepository(db, logger),
		close:     pool.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("strict_calendar", cfg.StrictTeacherCalendar),
		zap.Bool("telegram", cfg.TelegramToken != ""),
		zap.Bool("queue", cfg.RedisAddr != ""),
	)

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	var (
		senders []notification.Sender
		tgBot   *bot.Bot
	)
	if cfg.TelegramToken != "" {
		tgBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create telegram bot: %w", err)
		}
		senders = append(senders, notification.NewTelegramSender(tgBot))
	}
	if cfg.SendgridAPIKey != "" {
		senders = append(senders, notification.NewEmailSender(cfg.SendgridAPIKey, cfg.AppName, cfg.MailFrom))
	}
	router := notification.NewRouter(logger, senders...)

	var (
		notifier service.Notifier
		worker   *notification.Worker
	)
	if cfg.RedisAddr != "" {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := asynq.NewClient(redisOpt)
		defer client.Close()
		notifier = notification.NewQueue(client, logger)
		worker = notification.NewWorker(redisOpt, router, logger)
	} else {
		direct := notification.NewDirect(router, 30*time.Second, logger)
		defer direct.Wait()
		notifier = direct
	}

	availability := service.NewAvailabilityStore(st.tx, st.slots, st.teachers, service.AvailabilityStoreOptions{
		StrictCalendar: cfg.StrictTeacherCalendar,
		Location:       cfg.Location(),
	}, logger)
	lifecycle := service.NewBookingLifecycle(availability, st.bookings, nil)
	scheduling := service.NewSchedulingService(st.tx, availability, lifecycle, st.bookings, st.teachers, st.students, notifier,
		service.SchedulingOptions{Currency: cfg.Currency}, logger)
	recurring := service.NewRecurringService(st.tx, availability, st.recurring, st.teachers, cfg.SlotWeeksAhead, logger)

	handler, err := rest.NewRouter(rest.NewHandler(scheduling, recurring, logger), rest.Options{
		AllowedOrigins:     cfg.AllowedOrigins(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Production:         cfg.IsProduction(),
		TrustedProxies:     cfg.TrustedProxies(),
		PaymentSecret:      cfg.PaymentCallbackSecret,
	})
	if err != nil {
		return fmt.Errorf("build http router: %w", err)
	}
	if cfg.PaymentCallbackSecret == "" {
		logger.Warn("PAYMENT_CALLBACK_SECRET not set, payment callback disabled")
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return app.NewScheduler(recurring, 24*time.Hour, logger).Run(gctx)
	})

	if worker != nil {
		g.Go(func() error { return worker.Run(gctx) })
	}

	if tgBot != nil {
		botController := controller.NewBotController(tgBot, scheduling, logger)
		if err := botController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands not set", zap.Error(err))
		}
		g.Go(func() error { return botController.Start(gctx) })
	}

	return g.Wait()
}
