package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"ngabarin/gateway/internal/call"
	"ngabarin/gateway/internal/config"
	"ngabarin/gateway/internal/database"
	"ngabarin/gateway/internal/directory"
	"ngabarin/gateway/internal/handlers"
	"ngabarin/gateway/internal/routes"
	"ngabarin/gateway/internal/transport"
	ws "ngabarin/gateway/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET is not set, every authenticated request will be rejected")
	}

	// Directory: Postgres when configured, otherwise an in-memory store
	var dir directory.Directory
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		dir = directory.NewPostgres(pool)
	} else {
		log.Println("⚠️  DATABASE_URL is not set, using in-memory directory")
		dir = directory.NewStatic(nil, nil)
	}

	hub := ws.NewHub(dir)
	go hub.Run(ctx)
	log.Println("✅ WebSocket Hub initialized")

	// Composed messages and call signals go to live sockets, and to the
	// broker when one is configured
	channels := transport.Fanout{hub}
	if cfg.AMQPURL != "" {
		publisher, err := transport.DialAMQP(transport.AMQPConfig{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Producer: "ngabarin-gateway",
		})
		if err != nil {
			log.Fatalf("Failed to connect to AMQP broker: %v", err)
		}
		defer publisher.Close()
		channels = append(channels, publisher)
		log.Printf("✅ Publishing chat events to exchange %q", cfg.AMQPExchange)
	}

	h := handlers.New(hub, ws.ClientOptions{
		Channel:   channels,
		Directory: dir,
		Media: func(chatID string) call.MediaFactory {
			return call.PionMediaFactory(cfg.ICEServers, chatID)
		},
	}, cfg.UploadDir, cfg.MaxUploadMB)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:   "Ngabarin Gateway v1.0",
		BodyLimit: (cfg.MaxUploadMB + 1) * 1024 * 1024,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))

	routes.SetupRoutes(app, h)

	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
