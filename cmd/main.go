package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	_ "geometry-relay/docs"
	"geometry-relay/internal/config"
	"geometry-relay/internal/handlers"
	"geometry-relay/internal/models"
	"geometry-relay/internal/repository"
	"geometry-relay/internal/services"
	"geometry-relay/internal/storage"
	"geometry-relay/internal/utils"
)

// @title Geometry Relay API
// @version 1.0
// @description Relays geometry snapshots from a CAD host to browser viewers and edit commands back.
// @BasePath /api
func main() {
	cfg := InitConfig()

	var journal services.CommandJournal
	var history services.CommandHistory
	if cfg.JournalEnabled() {
		db := ConnectDatabase(cfg)
		MigrateDatabase(db)
		repo := repository.NewCommandEventRepository(db)
		journal, history = repo, repo
		log.Printf("Command journal enabled (database %s)", cfg.DBName)
	}

	var uploader services.ObjectUploader
	if cfg.ExportEnabled() {
		uploader = InitMinIOClient(cfg)
		log.Printf("Snapshot export enabled (bucket %s)", cfg.MinioBucket)
	}

	store := services.NewSnapshotStore()
	queue := services.NewCommandQueue(journal)
	exports := services.NewExportService(store, uploader, cfg.MinioBucket)
	metrics := utils.NewMetrics(prometheus.DefaultRegisterer)

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders: "ETag",
	}))

	//Register Prometheus metrics endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	handlers.RegisterRoutes(api,
		handlers.NewGeometryHandler(store, exports, metrics),
		handlers.NewCommandHandler(queue, history, metrics))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Add Health check endpoint
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"projects": len(store.Projects()),
			"pending":  queue.Pending(""),
			"journal":  history != nil,
			"export":   exports.Enabled(),
		})
	})

	routes := app.GetRoutes()
	log.Println("Registered routes:")
	for _, r := range routes {
		log.Printf("  %s %s\n", r.Method, r.Path)
	}

	log.Printf("Relay listening on port %s", cfg.AppPort)
	log.Fatal(app.Listen(":" + cfg.AppPort))
}

func InitConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return cfg
}

func ConnectDatabase(cfg *config.Config) *gorm.DB {
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func MigrateDatabase(db *gorm.DB) {
	err := db.AutoMigrate(&models.CommandEvent{})
	if err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
}

func InitMinIOClient(cfg *config.Config) services.ObjectUploader {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	minioClient, err := storage.NewMinioClient(ctx, cfg)
	if err != nil {
		log.Fatalf("MinIO client initialization failed: %v", err)
	}
	return minioClient
}
