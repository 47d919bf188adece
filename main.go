package main

import (
	"DreamAI/controllers"
	"DreamAI/middleware"
	"DreamAI/pkg/chat"
	"DreamAI/pkg/config"
	"DreamAI/pkg/defaults"
	"DreamAI/pkg/i18n"
	"DreamAI/pkg/logger"
	svc "DreamAI/pkg/services"
	"DreamAI/pkg/storage"
	"DreamAI/routes"
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	config.Load()

	lg, err := logger.New(config.AppEnv)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	builtin := defaults.Builtin()
	builtin.Locale = config.DefaultLocale
	var provider defaults.Provider = builtin
	if config.DefaultsFile != "" {
		f := defaults.NewFile(config.DefaultsFile, lg)
		if err := f.Watch(); err != nil {
			lg.Warn("defaults file not watched", "path", config.DefaultsFile, "error", err)
		}
		defer f.Close()
		provider = f
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	backend, err := storage.Open(ctx, storage.OptionsFromConfig())
	cancel()
	if err != nil {
		lg.Fatal("failed to open storage", "backend", config.StorageBackend, "error", err)
	}
	store := storage.New(backend, provider, lg)
	defer store.Close()

	env := &controllers.Env{
		Store:     store,
		Interp:    svc.NewFromConfig(lg),
		Locales:   i18n.New(config.SupportedLocales, provider.DefaultLocale()),
		Log:       lg,
		FirstTurn: chat.FirstTurn(config.FirstTurnMode),
	}

	middleware.SetRateLimitConfig(time.Duration(config.RateLimitWindowSeconds)*time.Second, config.RateLimitCapacity)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)

	if config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:8081", "http://127.0.0.1:8081", "http://localhost:19006"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, env)
	lg.Info("listening", "port", config.Port)
	if err := r.Run(":" + config.Port); err != nil {
		lg.Fatal("server stopped", "error", err)
	}
}
