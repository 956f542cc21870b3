package server

import (
	"log/slog"
	"net/http"

	"github.com/jonathan/knowledge-dashboard/internal/gate"
)

// noDataMessage is reported when neither the remote source nor the local
// copy has a knowledge base.
const noDataMessage = "no knowledge base available"

// ValidateResponse is the body returned by GET /validate.
type ValidateResponse struct {
	Valid   bool   `json:"valid"`
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
	Path    []any  `json:"path"`
}

// handleKnowledge serves the knowledge base loaded from the configured source.
// Query parameters are ignored.
func (s *Server) handleKnowledge(w http.ResponseWriter, r *http.Request) {
	doc, err := s.loader.Load(r.Context(), s.cfg.SourceURL)
	if err != nil {
		s.logger.Error("knowledge load failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("error", err.Error()))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, noDataMessage)
		return
	}

	s.jsonResponse(w, http.StatusOK, doc)
}

// handleValidate checks the configured data file against the configured schema.
func (s *Server) handleValidate(w http.ResponseWriter, _ *http.Request) {
	outcome := gate.Check(s.cfg.DataPath, s.cfg.SchemaPath)

	resp := ValidateResponse{
		Valid:   outcome.Kind == gate.OutcomeSuccess,
		Outcome: outcome.Kind.String(),
		Message: outcome.Message,
		Path:    outcome.Path,
	}
	if outcome.Kind == gate.OutcomeFailure && resp.Path == nil {
		resp.Path = []any{}
	}

	status := http.StatusOK
	switch outcome.Kind {
	case gate.OutcomeFailure:
		status = http.StatusUnprocessableEntity
	case gate.OutcomeError:
		status = http.StatusInternalServerError
	}

	s.jsonResponse(w, status, resp)
}
