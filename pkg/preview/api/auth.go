package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/lestrrat-go/jwx/jwt"
)

// Capability scopes carried in the bearer token's "scope" claim.
const (
	ScopeRead   = "preview:read"
	ScopeCreate = "preview:create"
)

// NewTokenAuth builds the JWT verifier for the service's bearer credentials.
func NewTokenAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// RequireScope authenticates the request and checks that the token's scope
// claim grants the given capability. Missing or invalid tokens get 401;
// valid tokens without the scope get 403. Mount below jwtauth.Verifier.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil || jwt.Validate(token) != nil {
				renderError(w, r, http.StatusUnauthorized, "missing or invalid credential")
				return
			}
			if !hasScope(claims, scope) {
				renderError(w, r, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Creator returns the identity of the authenticated caller, taken from the
// token's subject claim.
func Creator(r *http.Request) string {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return ""
	}
	return token.Subject()
}

func hasScope(claims map[string]interface{}, scope string) bool {
	raw, ok := claims["scope"].(string)
	if !ok {
		return false
	}
	for _, s := range strings.Fields(raw) {
		if s == scope {
			return true
		}
	}
	return false
}

// errorResponse is the JSON body for error statuses
type errorResponse struct {
	Reason string `json:"reason"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, reason string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Reason: reason})
}
