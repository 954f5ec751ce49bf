package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/boundsec/pkg/command"
	"github.com/dmitrymomot/boundsec/pkg/execution"
	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail carries the error key; Message is only set for request errors.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// ObjectJSON is the wire form of a securable object.
type ObjectJSON struct {
	ID     string      `json:"id"`
	Type   string      `json:"type"`
	Parent *ObjectJSON `json:"parent,omitempty"`
}

// Object converts o into an rbac.Object. A nil o is nil.
func (o *ObjectJSON) Object() rbac.Object {
	if o == nil {
		return nil
	}
	obj := &rbac.BasicObject{ID: o.ID, Type: o.Type}
	if o.Parent != nil {
		obj.Parent = o.Parent.Object()
	}
	return obj
}

func objectJSON(obj rbac.Object) *ObjectJSON {
	if rbac.IsNil(obj) {
		return nil
	}
	return &ObjectJSON{ID: obj.ObjectID(), Type: obj.TypeName(), Parent: objectJSON(obj.SecurityParent())}
}

// TokenJSON describes a pending suspension.
type TokenJSON struct {
	ID        string `json:"id"`
	Command   string `json:"command"`
	Component string `json:"component"`
	Message   string `json:"message,omitempty"`
}

// ResultJSON is the outcome of an execution, resume or discard.
type ResultJSON struct {
	Status      string     `json:"status"`
	Errors      []string   `json:"errors,omitempty"`
	CloseDialog bool       `json:"close_dialog,omitempty"`
	Processed   []any      `json:"processed,omitempty"`
	Token       *TokenJSON `json:"token,omitempty"`
}

func resultJSON(res *command.Result) ResultJSON {
	out := ResultJSON{
		Status:      res.Status().String(),
		Errors:      res.Errors(),
		CloseDialog: res.CloseDialog(),
	}
	for _, p := range res.Processed() {
		if obj, ok := p.(rbac.Object); ok {
			out.Processed = append(out.Processed, objectJSON(obj))
			continue
		}
		out.Processed = append(out.Processed, p)
	}
	if tok := res.Token(); tok != nil {
		out.Token = &TokenJSON{
			ID:        tok.ID,
			Command:   tok.CommandID,
			Component: tok.Component,
			Message:   tok.Message,
		}
	}
	return out
}

// resultStatus maps a result to the HTTP status it is served with.
func resultStatus(res *command.Result) int {
	switch {
	case res.IsSuspended():
		return http.StatusAccepted
	case res.IsSuccess():
		return http.StatusOK
	}
	err := res.Err()
	switch {
	case errors.Is(err, execution.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, execution.ErrObjectNotFound), errors.Is(err, execution.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, execution.ErrNotExecutable):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error, message string) {
	writeJSON(w, status, Response{Error: &ErrorDetail{Code: errorCode(err), Message: message}})
}

// errorCode returns the key of the first package sentinel in err.
func errorCode(err error) string {
	for _, sentinel := range []error{
		ErrMissingSession,
		ErrUnauthenticated,
		ErrInvalidBody,
		ErrInvalidBar,
		ErrUnknownComponent,
		ErrRateLimited,
		ErrInvalidGroup,
		execution.ErrTokenNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "httpapi.internal_error"
}
