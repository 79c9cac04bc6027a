package http

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/markr/internal/importlog"
	"github.com/mind-engage/markr/internal/storage"
)

type importView struct {
	importlog.Entry
	ArchiveURL string `json:"archive_url,omitempty"`
}

// GET /imports?limit=N
// Archived entries carry a download link when a blob store is configured.
func ListImportsHandler(repo *importlog.Repo, bs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "import log disabled", http.StatusNotFound)
			return
		}
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		list, err := repo.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]importView, 0, len(list))
		for _, e := range list {
			v := importView{Entry: e}
			if bs != nil && e.ArchiveKey != "" {
				if u, err := bs.SignedURL(e.ArchiveKey); err == nil {
					v.ArchiveURL = u
				}
			}
			out = append(out, v)
		}
		writeJSON(w, out)
	}
}

// MountArchive serves archived payloads: GET /archive/*
func MountArchive(r chi.Router, bs storage.BlobStore) {
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
