package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vetlink/vetlink/internal/config"
	"github.com/vetlink/vetlink/internal/domain/appointment"
	v1 "github.com/vetlink/vetlink/internal/handler/v1"
	"github.com/vetlink/vetlink/internal/inference"
	"github.com/vetlink/vetlink/internal/repository"
	"github.com/vetlink/vetlink/internal/service"
	"github.com/vetlink/vetlink/pkg/auth"
	"github.com/vetlink/vetlink/pkg/blob"
	"github.com/vetlink/vetlink/pkg/database"
	"github.com/vetlink/vetlink/pkg/logger"
	"github.com/vetlink/vetlink/pkg/mailer"
	"github.com/vetlink/vetlink/pkg/metrics"
	"github.com/vetlink/vetlink/pkg/tracer"
)

func main() {
	// Missing .env is fine in production; config falls back to real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("loading config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("building logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			log.Fatal("initializing tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("running migrations", zap.Error(err))
	}

	collector := metrics.NewCollector(cfg.App.Name)

	uploader, err := blob.NewS3Uploader(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal("initializing blob storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	resetRepo := repository.NewResetTokenRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	petRepo := repository.NewPetRepository(db)
	gaitRepo := repository.NewGaitAnalysisRepository(db)
	pharmacyRepo := repository.NewPharmacyRepository(db)

	jwtManager := auth.NewJWTManager(cfg.JWT)
	notify := service.NewNotificationService(mailer.NewSMTPMailer(cfg.SMTP), collector, log, cfg.SMTP.BufferSize)
	defer notify.Shutdown()

	schedule := appointment.ScheduleConfig{
		StartHour:    cfg.Schedule.StartHour,
		EndHour:      cfg.Schedule.EndHour,
		SlotInterval: cfg.Schedule.SlotInterval,
	}

	inferenceClient := inference.NewClient(cfg.Inference, collector, log)

	authService := service.NewAuthService(userRepo, resetRepo, jwtManager, notify, collector, log, cfg.App.BaseURL)
	userService := service.NewUserService(userRepo, apptRepo, log)
	apptService := service.NewAppointmentService(apptRepo, userRepo, notify, collector, log, schedule, cfg.Payment.ConsultationFee)
	petService := service.NewPetService(petRepo, uploader, log)
	pharmacyService := service.NewPharmacyService(pharmacyRepo, log)
	predictionService := service.NewPredictionService(inferenceClient, gaitRepo, log)
	contactService := service.NewContactService(notify, cfg.SMTP.AdminEmail, log)

	router := v1.NewRouter(cfg, jwtManager, collector, v1.Handlers{
		Auth:         v1.NewAuthHandler(authService),
		Users:        v1.NewUserHandler(userService),
		Appointments: v1.NewAppointmentHandler(apptService),
		Pets:         v1.NewPetHandler(petService),
		Pharmacies:   v1.NewPharmacyHandler(pharmacyService),
		Predictions:  v1.NewPredictionHandler(predictionService),
		Contact:      v1.NewContactHandler(contactService),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
