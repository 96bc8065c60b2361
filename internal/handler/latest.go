package handler

import (
	"encoding/json"
	"net/http"

	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// Latest serves the most recent comparison record.
func Latest(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := p.Latest()
		if rec == nil {
			http.Error(w, `{"error":"no comparison available yet"}`, http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rec)
	}
}
