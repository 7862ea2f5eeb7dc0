package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arpg-auction-gateway/internal/auction"
	"arpg-auction-gateway/internal/cache"
	"arpg-auction-gateway/internal/config"
	"arpg-auction-gateway/internal/gateway"
	"arpg-auction-gateway/internal/handler"
	"arpg-auction-gateway/internal/ledger"
	"arpg-auction-gateway/internal/middleware"
	"arpg-auction-gateway/internal/model"
	"arpg-auction-gateway/internal/protocol"
	"arpg-auction-gateway/internal/repository"
	"arpg-auction-gateway/internal/router"
	"arpg-auction-gateway/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting ARPG Auction Gateway...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize character repository based on config
	var characterRepo repository.CharacterRepository
	var auditDB *sql.DB

	switch cfg.CharacterDB.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.CharacterDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("MySQL ping failed: %v", err)
		}
		defer mysqlDB.Close()

		mysqlRepo, err := repository.NewMySQLCharacterRepository(mysqlDB)
		if err != nil {
			log.Fatalf("Failed to initialize MySQL character repository: %v", err)
		}
		characterRepo = mysqlRepo
		log.Println("MySQL character repository initialized")

		// Audit records stay in SQLite even when characters live in MySQL
		auditDSN := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", cfg.Audit.Path)
		auditDB, err = sql.Open("sqlite", auditDSN)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		auditDB.SetMaxOpenConns(1)
		defer auditDB.Close()
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteCharacterRepository(cfg.CharacterDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite character repository: %v", err)
		}
		defer sqliteRepo.Close()
		characterRepo = sqliteRepo
		auditDB = sqliteRepo.DB()
		log.Println("SQLite character repository initialized")
	}

	auditRepo, err := repository.NewSQLiteAuditRepository(auditDB)
	if err != nil {
		log.Fatalf("Failed to initialize audit repository: %v", err)
	}

	// Initialize access token cache
	var tokenCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
			tokenCache = cache.NewMemoryCache()
		} else {
			tokenCache = cache.NewRedisCache(redisClient, "auction:")
			log.Println("Redis token cache initialized")
		}
	} else {
		tokenCache = cache.NewMemoryCache()
		log.Println("Memory token cache initialized")
	}
	defer tokenCache.Close()

	// Auction service client
	auctionClient := auction.NewRESTClient(auction.RESTClientConfig{
		BaseURL:      cfg.Auction.BaseURL,
		ServiceToken: cfg.Auction.ServiceToken,
		Timeout:      cfg.Auction.Timeout,
	})
	log.Printf("Auction service client targeting %s", cfg.Auction.BaseURL)

	// Initialize services
	characterService := service.NewCharacterService(characterRepo)
	tokenService := service.NewAccessTokenService(auctionClient, tokenCache, cfg.Cache.TTL)

	// Audit retention
	cleanupScheduler := service.NewCleanupScheduler(auditRepo, service.CleanupConfig{
		Retention:       cfg.Audit.Retention,
		CleanupInterval: cfg.Audit.CleanupInterval,
	})
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Wire the message plane
	serverCtx, stopHandlers := context.WithCancel(context.Background())
	defer stopHandlers()

	sessions := gateway.NewSessionRegistry()
	dispatcher := protocol.NewDispatcher()

	gw := gateway.New(serverCtx, dispatcher, sessions,
		characterService.Login,
		func(connID string, char *model.PlayerCharacterData) {
			if char != nil {
				characterService.Logout(context.Background(), char)
			}
		},
	)

	auctionHandler := handler.NewAuctionHandler(handler.AuctionHandlerConfig{
		Sessions:   sessions,
		Ledger:     ledger.New(),
		Auctions:   auctionClient,
		Tokens:     tokenService,
		Characters: characterService,
		Audit:      auditRepo,
	})
	auctionHandler.Register(dispatcher)

	// HTTP surface
	healthHandler := handler.New()
	adminHandler := handler.NewAdminHandler(gw, characterRepo, auditRepo, cfg.CharacterDB.Type)

	r := router.New(router.Config{
		Handler:      healthHandler,
		AdminHandler: adminHandler,
		Gateway:      gw,
		AdminAuth:    middleware.NewAdminAuth(cfg.App.LoginKey),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
