package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cwbudde/adaptivezoo/internal/bench"
	"github.com/cwbudde/adaptivezoo/internal/zoo"
)

// ProgressEvent is the per-step update pushed to stream subscribers.
// It carries the latest point and statistics, not the full history; clients
// fetch the complete snapshot from the status endpoint.
type ProgressEvent struct {
	JobID        string        `json:"jobId"`
	State        JobState      `json:"state"`
	Iteration    int           `json:"iteration"`
	Objective    float64       `json:"objective"`
	GradientNorm float64       `json:"gradientNorm"`
	StepSize     float64       `json:"stepSize"`
	X            []float64     `json:"x"`
	Summary      bench.Summary `json:"summary"`
	Error        string        `json:"error,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

func newProgressEvent(jobID string, state JobState, snap zoo.State, summary bench.Summary) ProgressEvent {
	return ProgressEvent{
		JobID:        jobID,
		State:        state,
		Iteration:    snap.Iteration,
		Objective:    summary.CurrentValue,
		GradientNorm: summary.GradientNorm,
		StepSize:     snap.StepSize,
		X:            snap.X,
		Summary:      summary,
		Timestamp:    time.Now(),
	}
}

// EventBroadcaster manages SSE connections for a job
type EventBroadcaster struct {
	mu        sync.RWMutex
	clients   map[string]map[chan ProgressEvent]bool // jobID -> set of client channels
	lastEvent map[string]ProgressEvent               // jobID -> last event for new clients
}

// NewEventBroadcaster creates a new event broadcaster
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan ProgressEvent]bool),
		lastEvent: make(map[string]ProgressEvent),
	}
}

// Subscribe adds a client to receive events for a job. The last event, if
// any, is replayed so late subscribers start from the current state.
func (eb *EventBroadcaster) Subscribe(jobID string) chan ProgressEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan ProgressEvent, 16)

	if eb.clients[jobID] == nil {
		eb.clients[jobID] = make(map[chan ProgressEvent]bool)
	}
	eb.clients[jobID][ch] = true

	if lastEvent, ok := eb.lastEvent[jobID]; ok {
		ch <- lastEvent
	}

	slog.Debug("SSE client subscribed", "job_id", jobID, "total_clients", len(eb.clients[jobID]))
	return ch
}

// Unsubscribe removes a client from receiving events
func (eb *EventBroadcaster) Unsubscribe(jobID string, ch chan ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients, ok := eb.clients[jobID]
	if !ok || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, jobID)
	}

	slog.Debug("SSE client unsubscribed", "job_id", jobID)
}

// Broadcast sends an event to all subscribed clients for a job.
// Clients whose buffer is full miss progress events. A terminal event
// replaces the oldest buffered one instead, so every client sees the end.
func (eb *EventBroadcaster) Broadcast(event ProgressEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.JobID] = event

	for ch := range eb.clients[event.JobID] {
		select {
		case ch <- event:
			continue
		default:
		}

		if !event.State.Terminal() {
			slog.Debug("SSE channel full, skipping event", "job_id", event.JobID, "iteration", event.Iteration)
			continue
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- event:
		default:
		}
	}
}

// ClientCount returns the number of subscribers for a job.
func (eb *EventBroadcaster) ClientCount(jobID string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.clients[jobID])
}

// CleanupJob removes all clients and cached events for a job
func (eb *EventBroadcaster) CleanupJob(jobID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.clients[jobID] {
		close(ch)
	}
	delete(eb.clients, jobID)
	delete(eb.lastEvent, jobID)

	slog.Debug("Cleaned up SSE resources", "job_id", jobID)
}

// handleJobStream handles SSE connections for job progress
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	eventChan := s.jobManager.broadcaster.Subscribe(jobID)
	defer s.jobManager.broadcaster.Unsubscribe(jobID, eventChan)

	initial := newProgressEvent(job.ID, job.State, job.Snapshot, job.Summary)
	initial.Error = job.Error
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "job_id", jobID, "error", err)
		return
	}
	flusher.Flush()
	if job.State.Terminal() {
		return
	}

	sent := initial.Iteration

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "job_id", jobID)
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			// the snapshot can be one step ahead of the replayed event
			if event.Iteration < sent && !event.State.Terminal() {
				continue
			}
			sent = event.Iteration
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "job_id", jobID, "error", err)
				return
			}
			flusher.Flush()
			if event.State.Terminal() {
				return
			}

		case <-pingTicker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes an event in SSE format
func writeSSEEvent(w http.ResponseWriter, event ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
