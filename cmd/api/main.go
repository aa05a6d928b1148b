package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Xstatic72/alphasis/internal/attendance"
	"github.com/Xstatic72/alphasis/internal/config"
	"github.com/Xstatic72/alphasis/internal/directory"
	"github.com/Xstatic72/alphasis/internal/grades"
	"github.com/Xstatic72/alphasis/internal/httpapi"
	"github.com/Xstatic72/alphasis/internal/logging"
	"github.com/Xstatic72/alphasis/internal/notify"
	"github.com/Xstatic72/alphasis/internal/payment"
	"github.com/Xstatic72/alphasis/internal/payment/gateway"
	"github.com/Xstatic72/alphasis/internal/registration"
	"github.com/Xstatic72/alphasis/internal/session"
	"github.com/Xstatic72/alphasis/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Closer()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger.Base); err != nil {
		logger.Base.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.App, logger *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q notify.Queue
	if cfg.QueueBackend == "memory" {
		q = notify.NewInMemory(64)
	} else {
		q = notify.NewRedisQueue(redisClient.Client, "alphasis:absences")
	}

	dirRepo := directory.NewRepository(db.Client)
	dirSvc := directory.NewService(dirRepo, dirRepo)

	attRepo := attendance.NewRepository(db.Client)
	regRepo := registration.NewRepository(db.Client)
	regSvc := registration.NewService(regRepo, dirRepo)
	attSvc := attendance.NewService(attRepo, dirRepo, regSvc, notify.NewPublisher(q))

	gradeSvc := grades.NewService(grades.NewRepository(db.Client), dirRepo)

	gw := gateway.New(cfg.GatewayURL, cfg.GatewaySkip)
	paySvc := payment.NewService(payment.NewRepository(db.Client), gw)
	if !cfg.GatewaySkip {
		if err := gw.Health(context.Background()); err != nil {
			logger.Warn("payment gateway not reachable", zap.Error(err))
		}
	}

	noteProc := notify.NewProcessor(notify.NewRepository(db.Client), dirRepo)

	sessions := session.NewManager(cfg.SessionKey, cfg.SessionIssuer, cfg.SessionTTL, redisClient.Client)

	api := httpapi.New(httpapi.Deps{
		Config:    cfg,
		Log:       logger,
		Sessions:  sessions,
		Directory: dirSvc,
		Lookup:    dirRepo,
		Att:       attSvc,
		Grades:    gradeSvc,
		Regs:      regSvc,
		Payments:  paySvc,
		Notes:     noteProc,
		DB:        db,
		Redis:     redisClient,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	// Give outstanding requests 10 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}
