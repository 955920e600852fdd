package mcp

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// AuthValidator is the "auth validator" collaborator interface named in
// spec.md §6. The core never implements authentication itself; it only
// calls through this interface when one is supplied.
type AuthValidator interface {
	Validate(ctx context.Context, r *http.Request) error
}

// OAuth2BearerValidator is one concrete, optional AuthValidator, per
// SPEC_FULL.md §11. Validate requires an "Authorization: Bearer <token>"
// header and, when an introspect function was supplied, passes the token
// to it; the *oauth2.Config given to the constructor is stored but not
// consulted by Validate. It gates nothing unless attached with WithAuth;
// without a validator the transport's checkAuth is a no-op.
type OAuth2BearerValidator struct {
	config *oauth2.Config
	// introspect, if set, is called with the bearer token to verify it
	// against the authorization server rather than trusting shape alone.
	introspect func(ctx context.Context, token string) error
}

func NewOAuth2BearerValidator(cfg *oauth2.Config, introspect func(ctx context.Context, token string) error) *OAuth2BearerValidator {
	return &OAuth2BearerValidator{config: cfg, introspect: introspect}
}

func (v *OAuth2BearerValidator) Validate(ctx context.Context, r *http.Request) error {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return newErr(KindAuth, "missing bearer token")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" {
		return newErr(KindAuth, "empty bearer token")
	}
	if v.introspect != nil {
		return v.introspect(ctx, token)
	}
	return nil
}
