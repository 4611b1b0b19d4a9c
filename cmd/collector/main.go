package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/vvlad1973/scorm-runtime/internal/api/http"
	"github.com/vvlad1973/scorm-runtime/internal/auth"
	"github.com/vvlad1973/scorm-runtime/internal/config"
	"github.com/vvlad1973/scorm-runtime/internal/db"
	"github.com/vvlad1973/scorm-runtime/internal/events"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	repo := events.NewRepo(dbh)
	authSvc := auth.NewService(cfg.JWTSecret, cfg.AdminUser, cfg.AdminPassHash)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(pr chi.Router) {
		api.MountIngest(pr, repo, cfg)
		pr.Post("/login", auth.LoginHandler(authSvc))
		pr.Group(func(rr chi.Router) {
			rr.Use(auth.JWTMiddleware(authSvc))
			api.MountReport(rr, repo)
		})
	})

	log.Printf("collector listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
