package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/pulsecrm/pulsecrm/internal/config"
	"github.com/pulsecrm/pulsecrm/internal/database"
	httpapi "github.com/pulsecrm/pulsecrm/internal/http"
	"github.com/pulsecrm/pulsecrm/internal/logger"
	"github.com/pulsecrm/pulsecrm/internal/repository"
	"github.com/pulsecrm/pulsecrm/internal/service"
	"github.com/pulsecrm/pulsecrm/internal/store"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "pulsecrm")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.Bootstrap(ctx, db); err != nil {
		zlog.Fatal("failed to bootstrap schema", zap.Error(err))
	}

	// refresh token 存储：生产用 Redis，本地开发可退化为进程内存
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
		zlog.Info("redis token store enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = store.NewMemoryKV()
		zlog.Info("using in-memory token store")
	}

	tenantsRepo := repository.NewPostgresTenantsRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)
	leadsRepo := repository.NewPostgresLeadsRepository(db)
	stagesRepo := repository.NewPostgresStagesRepository(db)
	dealsRepo := repository.NewPostgresDealsRepository(db)
	historyRepo := repository.NewPostgresHistoryRepository(db)

	authSvc := service.NewAuthService(usersRepo, kv, cfg.JWT, zlog)
	setupSvc := service.NewSetupService(tenantsRepo, usersRepo, zlog)
	leadSvc := service.NewLeadService(leadsRepo, zlog)
	pipelineSvc := service.NewPipelineService(stagesRepo, zlog)
	dealSvc := service.NewDealService(dealsRepo, stagesRepo, historyRepo, zlog)

	router := httpapi.NewRouter(zlog)
	router.RegisterHealthRoutes(httpapi.NewHealthHandler(db, zlog))
	router.RegisterSetupRoutes(httpapi.NewSetupHandler(setupSvc, zlog))
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authSvc, zlog))
	router.RegisterTenantRoutes(httpapi.NewTenantHandler(tenantsRepo, zlog))
	router.RegisterLeadRoutes(httpapi.NewLeadHandler(leadSvc, zlog))
	router.RegisterPipelineRoutes(httpapi.NewPipelineHandler(pipelineSvc, zlog))
	router.RegisterDealRoutes(httpapi.NewDealHandler(dealSvc, zlog))

	handler := httpapi.TenantMiddleware(tenantsRepo, zlog,
		httpapi.AuthMiddleware(authSvc, zlog, router))

	srv := service.NewServer(cfg.HTTP.Addr, handler, zlog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		zlog.Error("server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
