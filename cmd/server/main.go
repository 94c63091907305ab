package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scaledrill/internal/cache"
	"scaledrill/internal/config"
	"scaledrill/internal/repository"
	"scaledrill/internal/service"
	"scaledrill/internal/transport/rest"
	"scaledrill/internal/transport/ws"
)

type stores struct {
	presetRepo    repository.PresetRepo
	presetCache   cache.PresetCache
	sessionCache  cache.SessionCache
	questionCache cache.QuestionCache
	close         func()
}

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	log.Printf("Drill defaults: roots=%v modes=%v degrees=%v", cfg.Defaults.Roots, cfg.Defaults.Modes, cfg.Defaults.Degrees)

	var st *stores
	if cfg.Store == config.StoreMemory {
		log.Println("Warning: STORE=memory, presets and sessions are not persisted")
		st = memoryStores(cfg)
	} else {
		st = connectStores(ctx, cfg)
	}
	defer st.close()

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret, cfg.SessionTTL)
	presetSvc := service.NewPresetService(st.presetRepo, st.presetCache)
	drillSvc := service.NewDrillService(st.sessionCache, st.questionCache, presetSvc, authSvc, cfg.Defaults)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	presetSvc.SetBroadcaster(wsHub)
	drillSvc.SetBroadcaster(wsHub)
	presetSvc.SetWatcher(drillSvc)

	// Create router with container
	container := &rest.Container{
		AuthService:   authSvc,
		PresetService: presetSvc,
		DrillService:  drillSvc,
		WSHub:         wsHub,
		CORS:          cfg.CORS,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Printf("Host auth: username=%s", cfg.HostUsername)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/options")
		log.Println("  POST /v1/questions")
		log.Println("  POST /v1/check")
		log.Println("  POST /v1/auth/login")
		log.Println("  POST/GET /v1/presets")
		log.Println("  GET/PUT/DELETE /v1/presets/{code}")
		log.Println("  POST/DELETE /v1/drills")
		log.Println("  GET  /v1/drills/current")
		log.Println("  POST /v1/drills/next")
		log.Println("  POST /v1/drills/answer")
		log.Println("  PUT  /v1/drills/config")
		log.Println("  WS   /v1/ws/drills/{sessionId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	wsHub.Stop()

	log.Println("Server exited")
}

func connectStores(ctx context.Context, cfg *config.Config) *stores {
	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		log.Fatal("Failed to create indexes:", err)
	}

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	return &stores{
		presetRepo:    repository.NewPresetRepo(db),
		presetCache:   cache.NewPresetCache(rdb),
		sessionCache:  cache.NewSessionCache(rdb, cfg.SessionTTL),
		questionCache: cache.NewQuestionCache(rdb, cfg.SessionTTL),
		close: func() {
			rdb.Close()
			mongoClient.Disconnect(context.Background())
		},
	}
}

func memoryStores(cfg *config.Config) *stores {
	return &stores{
		presetRepo:    repository.NewMemoryPresetRepo(),
		presetCache:   cache.NewMemoryPresets(),
		sessionCache:  cache.NewMemorySessions(cfg.SessionTTL),
		questionCache: cache.NewMemoryQuestions(cfg.SessionTTL),
		close:         func() {},
	}
}
