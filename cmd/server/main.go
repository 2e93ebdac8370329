package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/quivio/quivio/internal/config"
	"github.com/quivio/quivio/internal/database"
	"github.com/quivio/quivio/internal/mailer"
	postgresrepo "github.com/quivio/quivio/internal/repository/postgres"
	"github.com/quivio/quivio/internal/service"
	"github.com/quivio/quivio/internal/storage"
	"github.com/quivio/quivio/internal/transport/http/handlers"
	"github.com/quivio/quivio/internal/transport/http/middleware"
	"github.com/quivio/quivio/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Media host
	mediaStore, err := storage.NewS3Storage(ctx, cfg.MediaBucket, cfg.MediaRegion, cfg.MediaEndpoint)
	if err != nil {
		log.Fatal(err)
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	capsuleRepo := postgresrepo.NewCapsuleRepo(pool)
	moodRepo := postgresrepo.NewMoodRepo(pool)
	diaryRepo := postgresrepo.NewDiaryRepo(pool)
	photoRepo := postgresrepo.NewPhotoRepo(pool)

	// Email
	smtpMailer := mailer.NewSMTPMailer(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword,
		cfg.EmailFromName, cfg.FrontendURL, cfg.EmailsEnabled,
	)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	dispatchService := service.NewDispatchService(capsuleRepo, userRepo, smtpMailer, 0)
	capsuleService := service.NewCapsuleService(capsuleRepo, userRepo, mediaStore, dispatchService)
	dailyService := service.NewDailyService(moodRepo, diaryRepo, photoRepo)
	photoService := service.NewPhotoService(photoRepo, mediaStore)
	timelineService := service.NewTimelineService(moodRepo, diaryRepo, photoRepo, capsuleRepo)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	capsuleService.SetNotifier(ws.NewHubNotifier(hub))

	// Background sweeper picks up capsules the owner never opened.
	sweeper := service.NewSweeper(capsuleRepo, capsuleService, cfg.SweepInterval)
	go sweeper.Run(ctx)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	capsuleHandler := handlers.NewCapsuleHandler(capsuleService)
	dailyHandler := handlers.NewDailyHandler(dailyService)
	photoHandler := handlers.NewPhotoHandler(photoService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Protected - Auth
	mux.Handle("GET /api/v1/auth/me", auth(http.HandlerFunc(authHandler.Me)))

	// Protected - Capsules
	mux.Handle("POST /api/v1/capsules", auth(http.HandlerFunc(capsuleHandler.Create)))
	mux.Handle("POST /api/v1/capsules/create-with-recipients", auth(http.HandlerFunc(capsuleHandler.CreateWithRecipients)))
	mux.Handle("GET /api/v1/capsules", auth(http.HandlerFunc(capsuleHandler.List)))
	mux.Handle("GET /api/v1/capsules/{id}", auth(http.HandlerFunc(capsuleHandler.Get)))
	mux.Handle("PUT /api/v1/capsules/{id}/open", auth(http.HandlerFunc(capsuleHandler.Open)))
	mux.Handle("POST /api/v1/capsules/{id}/media", auth(http.HandlerFunc(capsuleHandler.AddMedia)))
	mux.Handle("DELETE /api/v1/capsules/{id}/media/{mediaID}", auth(http.HandlerFunc(capsuleHandler.DeleteMedia)))

	// Protected - Daily journal
	mux.Handle("POST /api/v1/daily/mood", auth(http.HandlerFunc(dailyHandler.SaveMood)))
	mux.Handle("GET /api/v1/daily/mood", auth(http.HandlerFunc(dailyHandler.GetMood)))
	mux.Handle("POST /api/v1/daily/diary", auth(http.HandlerFunc(dailyHandler.SaveDiary)))
	mux.Handle("GET /api/v1/daily/diary", auth(http.HandlerFunc(dailyHandler.GetDiary)))
	mux.Handle("GET /api/v1/daily/entry", auth(http.HandlerFunc(dailyHandler.GetEntry)))

	// Protected - Photos
	mux.Handle("POST /api/v1/photos", auth(http.HandlerFunc(photoHandler.Upload)))
	mux.Handle("GET /api/v1/photos", auth(http.HandlerFunc(photoHandler.List)))
	mux.Handle("DELETE /api/v1/photos/{id}", auth(http.HandlerFunc(photoHandler.Delete)))

	// Protected - Timeline
	mux.Handle("GET /api/v1/timeline/calendar/{year}/{month}", auth(http.HandlerFunc(timelineHandler.Calendar)))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: middleware.CORS(mux),
	}

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR shutting down server: %v", err)
	}
}
