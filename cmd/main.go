package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/Leganyst/slotswap-platform/internal/config"
	"github.com/Leganyst/slotswap-platform/internal/db"
	"github.com/Leganyst/slotswap-platform/internal/httpapi"
	"github.com/Leganyst/slotswap-platform/internal/model"
	"github.com/Leganyst/slotswap-platform/internal/notify"
	"github.com/Leganyst/slotswap-platform/internal/repository"
	"github.com/Leganyst/slotswap-platform/internal/service"
)

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	// 1. Загружаем конфиги из env.
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("load db config: %v", err)
	}
	httpCfg, err := config.LoadHTTPConfig()
	if err != nil {
		log.Fatalf("load http config: %v", err)
	}

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(dbCfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	slotRepo := repository.NewGormSlotRepository(gormDB)
	reqRepo := repository.NewGormSwapRequestRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)

	// 5. Хаб уведомлений и сервисы.
	hub := notify.NewHub()
	identitySvc := service.NewIdentityService(userRepo)
	slotSvc := service.NewSlotService(slotRepo)
	swapSvc := service.NewSwapService(gormDB, reqRepo, hub)
	suggestSvc := service.NewSuggestionService(slotRepo)

	// 6. HTTP API.
	api := httpapi.NewAPI(httpCfg, identitySvc, slotSvc, swapSvc, suggestSvc, userRepo, eventRepo, hub)
	rateLimiter := httpapi.NewRateLimiter(5, 10)
	router := api.Router(rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   httpCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    httpCfg.Addr,
		Handler: httpapi.Logging(corsHandler.Handler(router)),
		// Read/Write-таймауты не задаём: /ws держит долгоживущие соединения.
		IdleTimeout: 60 * time.Second,
	}

	log.Printf("slotswap API listening on %s", httpCfg.Addr)

	// 7. Запускаем сервер в горутине.
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	// 8. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
