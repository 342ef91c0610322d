package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	api "github.com/exambank/qbank/internal/api/http"
	"github.com/exambank/qbank/internal/archive"
	"github.com/exambank/qbank/internal/auth"
	"github.com/exambank/qbank/internal/config"
	"github.com/exambank/qbank/internal/db"
	"github.com/exambank/qbank/internal/ingest"
	"github.com/exambank/qbank/internal/ingest/extract"
	"github.com/exambank/qbank/internal/ingest/session"
	"github.com/exambank/qbank/internal/question"
	"github.com/exambank/qbank/internal/rbac"
	"github.com/exambank/qbank/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Blob store ---
	bs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Preview sessions ---
	sessions := session.NewStore(cfg.SessionTTL)
	go sessions.Run(cfg.SessionSweep)
	defer sessions.Close()

	// --- Import pipeline ---
	svc := ingest.NewService(question.NewSQLStore(dbh), bs, archive.NewSQLStore(dbh), sessions)
	if cfg.OCREnabled {
		svc.OCR = extract.OCRConfig{
			PdftoppmBin:  cfg.OCRPdftoppmBin,
			TesseractBin: cfg.OCRTesseractBin,
			Langs:        cfg.OCRLangs,
			DPI:          cfg.OCRDPI,
			PageTimeout:  60 * time.Second,
		}
	} else {
		svc.OCR = extract.OCRConfig{}
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.JWTSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Route("/import", func(ir chi.Router) {
			ir.Use(rbac.Require("question:import"))
			ir.Post("/preview", api.ImportPreviewHandler(svc))
			ir.Post("/commit", api.ImportCommitHandler(svc))
			ir.Get("/sessions/{sessionID}/images/{index}", api.PreviewImageHandler(svc))
		})

		pr.With(rbac.Require("question:view")).
			Get("/questions/{questionID}", api.GetQuestionHandler(svc.Questions))
		pr.With(rbac.Require("archive:view")).
			Get("/archives", api.ListArchivesHandler(svc.Archives))

		pr.Route("/assets", func(ar chi.Router) {
			ar.Use(rbac.RequireAny("asset:view", "question:view"))
			api.MountAssets(ar, bs)
		})
	})

	log.Printf("qbank gateway listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("http server: %v", err)
	}
}

func newBlobStore(cfg config.Config) (storage.BlobStore, error) {
	switch cfg.BlobDriver {
	case "minio":
		return storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			Region:    cfg.MinioRegion,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return storage.NewFSStore(cfg.BlobBasePath)
	}
}
