package api

import (
	"net/http"

	"github.com/dgallion1/pdfsplice/internal/version"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context(), "")
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":     version.String(),
		"documents":   len(docs),
		"queue_depth": s.orchestrator.QueueDepth(),
		"workers":     s.cfg.WorkerCount,
	})
}
