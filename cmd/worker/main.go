package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Xstatic72/alphasis/internal/config"
	"github.com/Xstatic72/alphasis/internal/directory"
	"github.com/Xstatic72/alphasis/internal/logging"
	"github.com/Xstatic72/alphasis/internal/notify"
	"github.com/Xstatic72/alphasis/internal/store"
)

// Worker consumes absence events and records notices for parents.
func main() {
	cfg := config.Load()

	logger, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Closer()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Base.Info("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Base.Fatal("db connect failed", zap.Error(err))
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q notify.Queue
	if cfg.QueueBackend == "memory" {
		q = notify.NewInMemory(64)
	} else {
		q = notify.NewRedisQueue(redisClient.Client, "alphasis:absences")
	}

	dirRepo := directory.NewRepository(db.Client)
	proc := notify.NewProcessor(notify.NewRepository(db.Client), dirRepo)

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Base.Fatal("queue consume init failed", zap.Error(err))
	}

	logger.Base.Info("worker started, waiting for absence events")
	for msg := range messages {
		if msg.Type != notify.MessageTypeAbsence {
			continue
		}

		var evt notify.AbsenceEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			logger.Base.Warn("bad absence event", zap.Error(err))
			continue
		}

		note, err := proc.Process(ctx, evt)
		if err != nil {
			logger.Base.Error("notice failed",
				zap.String("student", evt.StudentID),
				zap.String("subject", evt.SubjectID),
				zap.Error(err),
			)
			continue
		}
		if note == nil {
			// No linked parent; nothing to deliver.
			continue
		}
		logger.Base.Info("absence notice recorded",
			zap.String("parent", note.ParentID),
			zap.String("student", note.StudentID),
			zap.String("subject", note.SubjectID),
		)
	}

	logger.Base.Info("worker stopped")
}
