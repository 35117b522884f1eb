package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/pdfsplice/internal/pipeline"
	"github.com/dgallion1/pdfsplice/internal/restructure"
	"github.com/go-chi/chi/v5"
)

const maxRequestBody = 1 << 20

var splitMethods = map[string]pipeline.Operation{
	"page":     pipeline.OpSplitByPage,
	"range":    pipeline.OpSplitByRange,
	"bookmark": pipeline.OpSplitByBookmark,
	"size":     pipeline.OpSplitBySize,
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	s.runSync(w, r, pipeline.OpMerge)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	op, ok := splitMethods[chi.URLParam(r, "method")]
	if !ok {
		jsonError(w, "unknown split method", http.StatusNotFound)
		return
	}
	s.runSync(w, r, op)
}

func (s *Server) runSync(w http.ResponseWriter, r *http.Request, op pipeline.Operation) {
	req, ok := decodeRequest(w, r, op)
	if !ok {
		return
	}
	res, err := s.orchestrator.Runner().Run(r.Context(), req)
	if err != nil {
		s.log.Warn("operation failed", "operation", op, "error", err)
		operationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	op, ok := pipeline.ParseOperation(chi.URLParam(r, "operation"))
	if !ok {
		jsonError(w, "unknown operation", http.StatusNotFound)
		return
	}
	req, ok := decodeRequest(w, r, op)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		operationError(w, err)
		return
	}

	job := pipeline.NewJob(req)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func decodeRequest(w http.ResponseWriter, r *http.Request, op pipeline.Operation) (pipeline.Request, bool) {
	var req pipeline.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		codedError(w, string(restructure.CodeInvalidRequest), "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	req.Operation = op
	return req, true
}

// operationError writes err with its code and the matching HTTP status.
func operationError(w http.ResponseWriter, err error) {
	code := pipeline.ErrorCode(err)
	codedError(w, code, err.Error(), statusFor(code))
}

func statusFor(code string) int {
	switch code {
	case string(restructure.CodeInvalidRequest), string(restructure.CodeDecode), string(restructure.CodeInvalidRange):
		return http.StatusBadRequest
	case string(restructure.CodeNoBookmarks):
		return http.StatusUnprocessableEntity
	case pipeline.CodeDocumentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func codedError(w http.ResponseWriter, code, msg string, status int) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}
