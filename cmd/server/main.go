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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/services-psychologists-psychotherapists/backend/internal/app"
	"github.com/services-psychologists-psychotherapists/backend/internal/config"
	"github.com/services-psychologists-psychotherapists/backend/internal/controller/rest"
	"github.com/services-psychologists-psychotherapists/backend/internal/i18n"
	"github.com/services-psychologists-psychotherapists/backend/internal/meeting"
	"github.com/services-psychologists-psychotherapists/backend/internal/notify"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository"
	"github.com/services-psychologists-psychotherapists/backend/internal/repository/memory"
	"github.com/services-psychologists-psychotherapists/backend/internal/service"
	"github.com/services-psychologists-psychotherapists/backend/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// storage хранилище вместе со справочником участников
type storage struct {
	store     repository.Transactor
	directory repository.ParticipantDirectory
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting booking service",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.StorageDriver),
		zap.Bool("zoom_enabled", cfg.ZoomEnabled()),
	)

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	provisioner, err := newProvisioner(cfg, logger)
	if err != nil {
		return err
	}

	location, err := time.LoadLocation(cfg.Zoom.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Zoom.Timezone, err)
	}

	locale := i18n.Resolve(cfg.DefaultLocale, i18n.Default())

	senders, err := newSenders(cfg)
	if err != nil {
		return err
	}
	dispatcher := notify.NewDispatcher(notify.NewRenderer(locale, location), logger, senders...)

	pool := worker.NewPool(cfg.Worker.Concurrency, cfg.Worker.QueueSize, logger)
	pool.Start(ctx)

	clock := service.SystemClock{}
	policy := service.NewRefundPolicy(cfg.NonPenaltyPeriod, locale)
	pipeline := service.NewPipeline(pool, st.store.Sessions(), provisioner, dispatcher, st.directory, cfg.SessionDuration, logger)

	handler := rest.NewHandler(
		service.NewSlotService(st.store, service.NewOverlapValidator(cfg.SessionDuration), policy, pipeline, clock, cfg.CalendarWindow(), logger),
		service.NewBookingService(st.store, pipeline, clock, logger),
		service.NewCancellationService(st.store, policy, pipeline, clock, logger),
		st.store,
		logger,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler: rest.NewRouter(handler, rest.RouterConfig{
			AllowOrigins: cfg.CORSOrigins,
			RateLimit:    cfg.RateLimit,
			RateBurst:    cfg.RateBurst,
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
		return pool.Stop(shutdownCtx)
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		directory := memory.NewDirectory(cfg.DefaultPrice)
		return &storage{
			store:     memory.NewStore(directory),
			directory: directory,
			close:     func() {},
		}, nil
	}

	pool, err := app.NewPostgresPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
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

	return &storage{
		store:     repository.NewPostgresStore(pool),
		directory: repository.NewParticipantRepository(pool),
		close:     pool.Close,
	}, nil
}

func newProvisioner(cfg *config.Config, logger *zap.Logger) (service.MeetingProvisioner, error) {
	if !cfg.ZoomEnabled() {
		logger.Warn("Zoom credentials are not set, sessions will be booked without meeting links")
		return meeting.Disabled{}, nil
	}

	provisioner, err := meeting.NewZoomProvisioner(meeting.Config{
		AccountID:    cfg.Zoom.AccountID,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		BaseURL:      cfg.Zoom.BaseURL,
		TokenURL:     cfg.Zoom.TokenURL,
		Timezone:     cfg.Zoom.Timezone,
		Topic:        cfg.Zoom.Topic,
		Timeout:      cfg.Zoom.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init zoom: %w", err)
	}
	return provisioner, nil
}

func newSenders(cfg *config.Config) ([]notify.Sender, error) {
	var senders []notify.Sender

	switch cfg.Email.Backend {
	case config.EmailBackendSMTP:
		senders = append(senders, notify.NewSMTPSender(notify.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.User,
			Password: cfg.Email.Password,
			From:     cfg.Email.Sender,
		}))
	default:
		senders = append(senders, notify.NewFileSender(cfg.Email.FilePath, cfg.Email.Sender))
	}

	if cfg.TelegramToken != "" {
		telegram, err := notify.NewTelegramSender(cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("init telegram: %w", err)
		}
		senders = append(senders, telegram)
	}

	return senders, nil
}
