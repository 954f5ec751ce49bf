package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// CheckersJSON lists the default checkers of an object for one group.
type CheckersJSON struct {
	Object   ObjectJSON `json:"object"`
	Group    string     `json:"group"`
	Checkers []string   `json:"checkers"`
	// Allowing is the first checker that lets the caller use the group.
	Allowing string `json:"allowing,omitempty"`
}

// ObjectCheckers reports the checkers authoritative for an object and the
// one that allows the caller, if any. The group defaults to read.
func (h *Handler) ObjectCheckers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("group")
	if name == "" {
		name = rbac.Read.Name
	}
	group, err := h.catalog.Groups().Lookup(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Join(ErrInvalidGroup, err), err.Error())
		return
	}

	ctx := r.Context()
	obj := &rbac.BasicObject{ID: chi.URLParam(r, "id"), Type: chi.URLParam(r, "type")}
	resolver := h.catalog.Checkers()

	out := CheckersJSON{Object: ObjectJSON{ID: obj.ID, Type: obj.Type}, Group: group.String(), Checkers: []string{}}
	for _, c := range resolver.CheckersFor(ctx, obj, group) {
		out.Checkers = append(out.Checkers, c.Name())
	}
	u, _ := rbac.UserFromContext(ctx)
	if c, ok := resolver.DefaultAllowing(ctx, u, obj, group); ok {
		out.Allowing = c.Name()
	}
	writeJSON(w, http.StatusOK, Response{Data: out})
}
