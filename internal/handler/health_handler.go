package handler

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string         `json:"status"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Database is the part of *sql.DB the readiness check needs
type Database interface {
	PingContext(ctx context.Context) error
	Stats() sql.DBStats
}

// Broker reports whether the message broker connection is gone
type Broker interface {
	IsClosed() bool
}

// Pinger is a dependency checked with a round trip
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ready checks the database, the mail broker and Redis concurrently and
// answers 503 when any of them is down
func Ready(db Database, broker Broker, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]func() HealthCheckResult{
			"database": func() HealthCheckResult { return checkDatabase(ctx, db) },
			"rabbitmq": func() HealthCheckResult { return checkBroker(broker) },
			"redis":    func() HealthCheckResult { return checkPinger(ctx, redis) },
		}

		var (
			mu      sync.Mutex
			wg      sync.WaitGroup
			results = make(map[string]HealthCheckResult, len(checks))
		)
		for name, check := range checks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res := check()
				mu.Lock()
				results[name] = res
				mu.Unlock()
			}()
		}
		wg.Wait()

		status, code := "ready", http.StatusOK
		for _, res := range results {
			if res.Status != "up" {
				status, code = "not_ready", http.StatusServiceUnavailable
				break
			}
		}

		respondJSON(w, r, code, map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    results,
		})
	}
}

func checkDatabase(ctx context.Context, db Database) HealthCheckResult {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: latency.Milliseconds(),
			Error:     err.Error(),
		}
	}

	stats := db.Stats()
	return HealthCheckResult{
		Status:    "up",
		LatencyMs: latency.Milliseconds(),
		Metadata: map[string]any{
			"connections_open":   stats.OpenConnections,
			"connections_in_use": stats.InUse,
			"connections_idle":   stats.Idle,
			"max_open":           stats.MaxOpenConnections,
		},
	}
}

func checkBroker(broker Broker) HealthCheckResult {
	if broker == nil || broker.IsClosed() {
		return HealthCheckResult{Status: "down", Error: "connection closed"}
	}
	return HealthCheckResult{Status: "up"}
}

func checkPinger(ctx context.Context, p Pinger) HealthCheckResult {
	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     err.Error(),
		}
	}
	return HealthCheckResult{Status: "up", LatencyMs: time.Since(start).Milliseconds()}
}
