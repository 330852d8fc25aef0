package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"

	config "github.com/frederico-apolonia/switch-downloader/configs"
	"github.com/frederico-apolonia/switch-downloader/internal/api/handlers"
	job "github.com/frederico-apolonia/switch-downloader/internal/jobs"
	"github.com/frederico-apolonia/switch-downloader/internal/repository"
	"github.com/frederico-apolonia/switch-downloader/internal/service"
)

const (
	driveClientSecretFile = "gdrive_credentials.json"
	driveTokenFile        = "gdrive_token.json"
	stagingRoot           = "tmp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := persistDriveClientSecret(cfg.DriveCredentials); err != nil {
		log.Fatalf("Failed to persist Drive client secret: %v", err)
	}

	backends := []repository.CredentialsBackend{
		repository.NewFileBackend(driveTokenFile, cfg.SecretKey),
	}

	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		opts, err := redis.ParseURL(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis is unreachable: %v", err)
		}

		backends = append(backends, repository.NewRedisBackend(redisClient, cfg.SecretKey))
	}

	credStore := repository.NewCredentialsStore(backends...)

	twitterService := service.NewTwitterService(*cfg)
	driveService, err := service.NewDriveService(cfg.DriveCredentials, cfg.SecretKey, credStore)
	if err != nil {
		log.Fatalf("Failed to initialize Drive service: %v", err)
	}
	extractService := service.NewExtractService()
	archiveService := service.NewArchiveService(*cfg, twitterService, driveService, extractService, stagingRoot)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	oauth := handlers.NewOAuthHandler(*cfg, driveService)
	app.Get("/authorize", oauth.Authorize)
	app.Get("/oauth2callback", oauth.Callback)

	webhook := handlers.NewWebhookHandler(archiveService)
	app.Post("/", webhook.Trigger)
	app.Post("/:delete", webhook.Trigger)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(driveService)

	c := cron.New()
	c.AddFunc("@every 00h30m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on http://%s", cfg.HostURL)

	gracefulShutdown(app, c)
}

// persistDriveClientSecret writes the client secret blob from the
// environment to disk once, mirroring the bootstrap the OAuth flow expects.
func persistDriveClientSecret(clientSecretJSON string) error {
	if _, err := os.Stat(driveClientSecretFile); err == nil {
		return nil
	}
	return os.WriteFile(driveClientSecretFile, []byte(clientSecretJSON), 0o600)
}

func gracefulShutdown(app *fiber.App, c *cron.Cron) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	c.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	log.Println("Server shutdown complete.")
}
