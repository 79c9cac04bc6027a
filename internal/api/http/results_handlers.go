package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/markr/internal/results"
)

// GET /results/{testID}
func ListResultsHandler(repo results.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := testIDParam(w, r)
		if !ok {
			return
		}
		list, err := repo.GetTestResults(r.Context(), testID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, list)
	}
}

// GET /results/{testID}/aggregate
func AggregateHandler(repo results.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		testID, ok := testIDParam(w, r)
		if !ok {
			return
		}
		agg, err := repo.GetAggregateTestResults(r.Context(), testID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, agg)
	}
}

func testIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "testID"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "testID must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
