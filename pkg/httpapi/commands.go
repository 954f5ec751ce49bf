package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/logger"
)

// CommandJSON is one command as rendered for a component.
type CommandJSON struct {
	ID            string   `json:"id"`
	Group         string   `json:"group"`
	Image         string   `json:"image,omitempty"`
	DisabledImage string   `json:"disabled_image,omitempty"`
	CSSClasses    []string `json:"css_classes,omitempty"`
	Confirm       bool     `json:"confirm,omitempty"`
	Allowed       bool     `json:"allowed"`
	Executable    bool     `json:"executable"`
	Reason        string   `json:"reason,omitempty"`
}

// BucketJSON is the commands of one clique.
type BucketJSON struct {
	Clique   string        `json:"clique"`
	Group    string        `json:"group,omitempty"`
	Display  string        `json:"display"`
	Commands []CommandJSON `json:"commands"`
}

// ExecuteRequest is the body of an execution. Model and Selection, when
// present, replace the component's before the command runs.
type ExecuteRequest struct {
	Args      command.Args `json:"args"`
	Model     *ObjectJSON  `json:"model"`
	Selection *ObjectJSON  `json:"selection"`
}

// ListCommands lays out every command for the component. Commands the user
// may not run are listed with allowed=false; hidden ones are left out.
func (h *Handler) ListCommands(w http.ResponseWriter, r *http.Request) {
	bar, err := command.ParseBar(r.URL.Query().Get("bar"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Join(ErrInvalidBar, err), err.Error())
		return
	}
	name := chi.URLParam(r, "component")
	comp, ok := h.workspace(r).Component(name)
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownComponent, fmt.Sprintf("component %q", name))
		return
	}

	ctx := r.Context()
	registry := h.catalog.Commands()
	var out []BucketJSON
	for _, b := range registry.Layout(registry.Commands(), bar) {
		bucket := BucketJSON{Clique: b.Clique, Group: b.Group, Display: string(b.Display)}
		for _, cmd := range b.Commands {
			model, err := cmd.Target().Resolve(comp)
			if err != nil {
				continue
			}
			inv := command.Invocation{Component: comp, Model: model, Args: command.Args{}}
			state := cmd.IsExecutable(ctx, inv)
			if state.Hidden {
				continue
			}
			s := cmd.Settings()
			bucket.Commands = append(bucket.Commands, CommandJSON{
				ID:            cmd.ID(),
				Group:         cmd.Group().String(),
				Image:         s.Image,
				DisabledImage: s.DisabledImage,
				CSSClasses:    s.CSSClasses,
				Confirm:       cmd.NeedsConfirm(),
				Allowed:       h.engine.CheckSecurity(ctx, cmd, inv),
				Executable:    state.Executable,
				Reason:        state.ReasonKey,
			})
		}
		if len(bucket.Commands) > 0 {
			out = append(out, bucket)
		}
	}

	writeJSON(w, http.StatusOK, Response{
		Data: out,
		Meta: map[string]any{"component": name, "bar": string(bar)},
	})
}

// Execute runs a command on a component of the caller's session.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if !decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "component")
	if req.Model != nil || req.Selection != nil {
		comp, ok := h.workspace(r).Component(name)
		if !ok {
			writeError(w, http.StatusNotFound, ErrUnknownComponent, fmt.Sprintf("component %q", name))
			return
		}
		if req.Model != nil {
			comp.SetModel(req.Model.Object())
		}
		if req.Selection != nil {
			comp.SetSelection(req.Selection.Object())
		}
	}

	id := chi.URLParam(r, "command")
	res := h.engine.Invoke(r.Context(), id, name, req.Args.Public())
	h.writeResult(w, r, res, logger.Command(id), logger.Component(name))
}

// SetModel replaces the model and selection of a component of the caller's
// session. A missing field clears it.
func (h *Handler) SetModel(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if !decode(w, r, &req) {
		return
	}
	name := chi.URLParam(r, "component")
	comp, ok := h.workspace(r).Component(name)
	if !ok {
		writeError(w, http.StatusNotFound, ErrUnknownComponent, fmt.Sprintf("component %q", name))
		return
	}
	comp.SetModel(req.Model.Object())
	comp.SetSelection(req.Selection.Object())
	w.WriteHeader(http.StatusNoContent)
}

// decode reads an optional JSON body. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errors.Join(ErrInvalidBody, err), err.Error())
		return false
	}
	return true
}
