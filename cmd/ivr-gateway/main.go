package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/buzz-code/event-management-nra-sub001/internal/flow"
	"github.com/buzz-code/event-management-nra-sub001/internal/handler"
	"github.com/buzz-code/event-management-nra-sub001/internal/repository"
	"github.com/buzz-code/event-management-nra-sub001/internal/service"
	"github.com/buzz-code/event-management-nra-sub001/internal/telephony"
	"github.com/buzz-code/event-management-nra-sub001/internal/texts"
	"github.com/buzz-code/event-management-nra-sub001/pkg/cache"
	"github.com/buzz-code/event-management-nra-sub001/pkg/config"
	"github.com/buzz-code/event-management-nra-sub001/pkg/database"
	"github.com/buzz-code/event-management-nra-sub001/pkg/lock"
	"github.com/buzz-code/event-management-nra-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction && cfg.IVR.DefaultUserScope == "" {
		log.Fatal("IVR_DEFAULT_USER_SCOPE must be set in production")
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	students := repository.NewStudentRepository(db)
	events := repository.NewEventRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	catalogs := repository.NewCatalogRepository(db)
	surveysRepo := repository.NewSurveyRepository(db)
	textsRepo := repository.NewTextRepository(db)

	textCatalog := texts.NewCatalog(textSource{repo: textsRepo}, redisClient, cfg.Texts.CacheTTL, log)
	locker := lock.NewRedisLocker(redisClient)
	validate := validator.New()

	identitySvc := service.NewIdentityService(students, log)
	eventSvc := service.NewEventService(db, events, assignments, locker, cfg.IVR.LockTTL, validate, log)
	surveySvc := service.NewSurveyService(surveysRepo, validate, log)
	assignmentSvc := service.NewAssignmentService(assignments, students, log)

	var bridge *telephony.Bridge
	metrics := service.NewMetricsService(func() float64 { return float64(bridge.ActiveCalls()) })

	engine := flow.NewEngine(textCatalog, cfg.IVR.MaxAttempts, metrics, log)
	orchestrator := flow.NewOrchestrator(identitySvc, eventSvc, surveySvc, catalogs, textCatalog, engine, cfg.IVR, metrics, log)
	bridge = telephony.NewBridge(orchestrator.Run, cfg.IVR.SessionIdleTimeout, log)
	defer bridge.Close()

	callHandler := handler.NewCallHandler(bridge, cfg.IVR.WebhookToken, log)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, cfg.IVR.DefaultUserScope, log)
	router := handler.NewRouter(cfg.Env, callHandler, assignmentHandler, metrics.Handler(), log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

// textSource adapts the texts table rows to the catalog's storage-free shape.
type textSource struct {
	repo *repository.TextRepository
}

func (s textSource) ListByUser(ctx context.Context, userID string) ([]texts.Text, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]texts.Text, 0, len(rows))
	for _, row := range rows {
		out = append(out, texts.Text{Name: row.Name, Value: row.Value})
	}
	return out, nil
}
