package server

import (
	"net/http"

	"github.com/cwbudde/adaptivezoo/internal/ui"
)

// handleIndex handles GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	jobs := s.jobManager.ListJobs()
	items := make([]ui.JobListItem, len(jobs))
	for i, job := range jobs {
		items[i] = ui.JobListItem{
			ID:           job.ID,
			State:        string(job.State),
			Benchmark:    job.Config.Benchmark,
			Dimension:    job.Config.Config.OriginalDimension,
			Reduced:      job.Config.Config.ReducedDimension,
			Iteration:    job.Snapshot.Iteration,
			MaxIteration: job.Config.Config.MaxIterations,
			InitialValue: job.Summary.InitialValue,
			CurrentValue: job.Summary.CurrentValue,
			BestValue:    job.Summary.BestValue,
			StepSize:     job.Summary.StepSize,
			StartTime:    job.StartTime,
			EndTime:      job.EndTime,
			Error:        job.Error,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := ui.JobList(items).Render(r.Context(), w); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
