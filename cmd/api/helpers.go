package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"award-review/internal/database"
)

func getContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// healthHandler reports whether the database answers within five seconds.
func healthHandler(db *database.Database, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		body := `{"status":"healthy","version":"` + version + `"}`
		status := http.StatusOK
		if err := db.HealthCheck(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			body = `{"status":"unhealthy","database":"error"}`
			status = http.StatusServiceUnavailable
		}

		w.WriteHeader(status)
		if _, err := w.Write([]byte(body)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	}
}
