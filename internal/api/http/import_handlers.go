package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mind-engage/markr/internal/ingest"
	"github.com/mind-engage/markr/internal/payload"
)

const DefaultMaxBodyBytes = 5 << 20

// POST /import  (Content-Type: text/xml+markr | application/json)
func ImportHandler(svc *ingest.Service, maxBytes int64) http.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		rc, err := svc.Ingest(r.Context(), r.Header.Get("Content-Type"), body)
		w.Header().Set("X-Import-ID", rc.ID)
		switch {
		case err == nil:
		case errors.Is(err, payload.ErrUnsupportedMediaType):
			http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
			return
		case ingest.IsClientError(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, rc.Outcome)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
