package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

type statusResponse struct {
	Total     int64     `json:"total"`
	Succeeded int64     `json:"succeeded"`
	Failed    int64     `json:"failed"`
	InFlight  int64     `json:"inFlight"`
	StartedAt time.Time `json:"startedAt"`
	Elapsed   string    `json:"elapsed"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	progress := s.progress.Progress()

	response := statusResponse{
		Total:     progress.Total,
		Succeeded: progress.Succeeded,
		Failed:    progress.Failed,
		InFlight:  progress.InFlight,
		StartedAt: progress.StartedAt,
	}

	if !progress.StartedAt.IsZero() {
		response.Elapsed = time.Since(progress.StartedAt).Round(time.Millisecond).String()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.ErrorContext(ctx, "failed to encode status response",
			"error", err,
		)
	}
}
