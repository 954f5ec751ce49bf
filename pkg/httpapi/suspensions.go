package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/execution"
	"github.com/dmitrymomot/boundsec/pkg/logger"
)

// ResumeRequest is the body of a resume.
type ResumeRequest struct {
	Args command.Args `json:"args"`
}

// Resume confirms a suspended invocation of the caller's session.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	var req ResumeRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "token")
	scope := execution.ScopeFromContext(r.Context())
	res := h.engine.Resume(r.Context(), scope, id, req.Args.Public())
	h.writeResult(w, r, res, logger.Token(id))
}

// Discard abandons a suspended invocation of the caller's session.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "token")
	scope := execution.ScopeFromContext(r.Context())
	if err := h.engine.Discard(r.Context(), scope, id); err != nil {
		if errors.Is(err, execution.ErrTokenNotFound) {
			writeError(w, http.StatusNotFound, err, "")
			return
		}
		h.logger.ErrorContext(r.Context(), "discard suspension", logger.Token(id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, res *command.Result, attrs ...slog.Attr) {
	status := resultStatus(res)
	if status >= http.StatusInternalServerError || status == http.StatusUnprocessableEntity {
		args := make([]any, 0, len(attrs)+1)
		for _, a := range attrs {
			args = append(args, a)
		}
		args = append(args, logger.Error(res.Err()))
		h.logger.WarnContext(r.Context(), "command failed", args...)
	}
	writeJSON(w, status, Response{Data: resultJSON(res)})
}
