package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/pokedex-cache-backend/api"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/backup"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/config"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/database"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/health"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/shutdown"
	"github.com/SlpAus/pokedex-cache-backend/internal/platform/startup"
	"github.com/SlpAus/pokedex-cache-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败，无法启动: %v", err))
	}

	// 2. 初始化本地缓存库与热缓存
	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 3. 阻塞式获取初始Run ID（Redis不可用时响应缓存自动旁路）
	health.InitializeRunID()

	// 4. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 5. 创建两阶段生命周期管理器并启动后台服务
	gracefulManager := lifecycle.NewManager()
	forcefulManager := lifecycle.NewManager()

	if err := gracefulManager.Go("redis-health-checker", health.StartRedisHealthCheck); err != nil {
		panic(fmt.Sprintf("无法启动健康检查器: %v", err))
	}
	if err := gracefulManager.Go("backup-scheduler", backup.StartBackupScheduler); err != nil {
		panic(fmt.Sprintf("无法启动快照调度器: %v", err))
	}

	// 6. 创建Gin引擎并配置CORS
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	// 7. 启动HTTP服务器并交由停机协调器接管
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	coordinator := shutdown.NewCoordinator(gracefulManager, forcefulManager)
	coordinator.ListenForSignalsAndShutdown(server)
}
