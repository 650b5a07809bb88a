package api

import (
	"database/sql"
	"net/http"

	"github.com/zoobzio/clockz"
)

// Health handles GET /api/health.
func Health(db *sql.DB, clock clockz.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			storeError(w, r, err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"status": "ok", "time": clock.Now().UTC()})
	}
}
