package router

import (
	"context"
	"net/http"
	"os"

	memblob "med-dashboard/internal/adapters/blob/memory"
	pgblob "med-dashboard/internal/adapters/blob/postgres"
	s3blob "med-dashboard/internal/adapters/blob/s3"
	"med-dashboard/internal/adapters/docstore"
	"med-dashboard/internal/domain/medications"
	"med-dashboard/internal/domain/uploads"
	"med-dashboard/internal/platform/logger"
	"med-dashboard/internal/ports/blob"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	// Blobs opcional: si es nil se elige backend por env (ver newBlobStore).
	Blobs blob.Store

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewFromEnv()
	}

	blobs := opts.Blobs
	if blobs == nil {
		blobs = newBlobStore(log)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	store := docstore.New(blobs)
	svc := medications.NewService(store)

	medications.RegisterRoutes(r, svc)
	uploads.RegisterRoutes(r, blobs)

	return r
}

// newBlobStore elige el backend de objetos por env:
// - BLOB_BACKEND=s3: S3/MinIO con S3_BUCKET, S3_REGION, S3_ENDPOINT (opcional)
// - BLOB_BACKEND=postgres (o DB_DSN presente): tabla blobs en Postgres
// - default: in-memory (dev; el documento no sobrevive al proceso)
// Si el backend pedido no levanta, warn y cae a in-memory (modo dev).
func newBlobStore(log logger.Logger) blob.Store {
	backend := os.Getenv("BLOB_BACKEND")

	switch backend {
	case "s3":
		s, err := s3blob.New(context.Background(), s3blob.Config{
			Bucket:   os.Getenv("S3_BUCKET"),
			Region:   os.Getenv("S3_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		})
		if err != nil {
			log.Warn("s3 backend unavailable, falling back to memory", map[string]any{"err": err.Error()})
			return memblob.New()
		}
		log.Info("blob backend: s3", map[string]any{"bucket": os.Getenv("S3_BUCKET")})
		return s

	case "postgres":
		return newPostgresStore(log, os.Getenv("DB_DSN"))

	case "", "memory":
		if dsn := os.Getenv("DB_DSN"); backend == "" && dsn != "" {
			return newPostgresStore(log, dsn)
		}
		log.Info("blob backend: memory", nil)
		return memblob.New()

	default:
		log.Warn("unknown BLOB_BACKEND, falling back to memory", map[string]any{"backend": backend})
		return memblob.New()
	}
}

func newPostgresStore(log logger.Logger, dsn string) blob.Store {
	db, err := pgblob.Open(dsn)
	if err != nil {
		log.Warn("postgres backend unavailable, falling back to memory", map[string]any{"err": err.Error()})
		return memblob.New()
	}
	log.Info("blob backend: postgres", nil)
	return pgblob.New(db)
}
