// Package healthprobe provides liveness and readiness handlers for the
// agent's HTTP surface.
package healthprobe

import (
	"net/http"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Probe tracks process liveness and readiness. The agent flips readiness on
// once scanners and the execution pipeline are running, and off again during
// shutdown so load balancers drain cleanly.
type Probe struct {
	startedAt time.Time
	ready     atomic.Bool
}

// New creates a probe. It starts not ready.
func New() *Probe {
	return &Probe{
		startedAt: time.Now(),
	}
}

// SetReady marks the agent ready (or not) to do work.
func (p *Probe) SetReady(ready bool) {
	p.ready.Store(ready)
}

// StatusResponse is the JSON body served by both probe endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Message string `json:"message,omitempty"`
}

// Health is the liveness handler. It answers 200 whenever the process runs.
func (p *Probe) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		p.write(w, http.StatusOK, StatusResponse{
			Status: "healthy",
			Uptime: time.Since(p.startedAt).String(),
		})
	}
}

// Ready is the readiness handler: 200 once the agent is scanning, 503 before
// startup completes and after shutdown begins.
func (p *Probe) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !p.ready.Load() {
			p.write(w, http.StatusServiceUnavailable, StatusResponse{
				Status:  "not_ready",
				Message: "agent is not accepting work",
			})
			return
		}
		p.write(w, http.StatusOK, StatusResponse{
			Status: "ready",
			Uptime: time.Since(p.startedAt).String(),
		})
	}
}

func (p *Probe) write(w http.ResponseWriter, code int, resp StatusResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
