package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/markr/internal/importlog"
	"github.com/mind-engage/markr/internal/ingest"
	"github.com/mind-engage/markr/internal/results"
	"github.com/mind-engage/markr/internal/storage"
)

type Deps struct {
	Ingest       *ingest.Service
	Repo         results.Repository
	ImportLog    *importlog.Repo   // optional
	Blobs        storage.BlobStore // optional
	Ping         func(ctx context.Context) error
	CORSOrigins  []string
	MaxBodyBytes int64
	Timeout      time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Length", "X-Import-ID"},
			MaxAge:         300,
		}))
	}

	r.Post("/import", ImportHandler(d.Ingest, d.MaxBodyBytes))
	r.Get("/results/{testID}", ListResultsHandler(d.Repo))
	r.Get("/results/{testID}/aggregate", AggregateHandler(d.Repo))
	r.Get("/imports", ListImportsHandler(d.ImportLog, d.Blobs))
	if d.Blobs != nil {
		r.Route("/archive", func(ar chi.Router) {
			MountArchive(ar, d.Blobs)
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				http.Error(w, "db: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}
