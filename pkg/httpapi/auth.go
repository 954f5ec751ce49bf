package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/boundsec/pkg/rbac"
)

// Identity and session headers read by HeaderAuthenticator and the scope
// middleware.
const (
	HeaderUserID         = "X-User-ID"
	HeaderUserAdmin      = "X-User-Admin"
	HeaderUserRestricted = "X-User-Restricted"
	HeaderSession        = "X-Session-ID"
)

// Authenticator extracts the acting user from a request. A nil user with a
// nil error is an anonymous request; an error rejects the request.
type Authenticator func(r *http.Request) (*rbac.User, error)

// HeaderAuthenticator trusts identity headers set by an upstream gateway.
// A request without X-User-ID is anonymous.
func HeaderAuthenticator(r *http.Request) (*rbac.User, error) {
	id := r.Header.Get(HeaderUserID)
	if id == "" {
		return nil, nil
	}
	return &rbac.User{
		ID:         id,
		Admin:      flag(r.Header.Get(HeaderUserAdmin)),
		Restricted: flag(r.Header.Get(HeaderUserRestricted)),
	}, nil
}

func flag(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
