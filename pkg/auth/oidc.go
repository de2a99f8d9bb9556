package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

var (
	ErrNonceMismatch = fmt.Errorf("nonce does not match pending login")
	ErrNoIDToken     = fmt.Errorf("token response missing id_token")
)

// Provider abstracts the identity provider so handler tests can substitute
// a fake instead of talking to a live issuer.
type Provider interface {
	// AuthCodeURL builds the provider redirect for a login attempt.
	AuthCodeURL(state, nonce string) string
	// Exchange swaps an authorization code for verified identity claims.
	// The nonce must match the one embedded in the returned ID token.
	Exchange(ctx context.Context, code, nonce string) (Claims, error)
}

// OIDCProvider is the live implementation backed by go-oidc discovery.
type OIDCProvider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewOIDCProvider(ctx context.Context, conf OIDCConfig) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, conf.Issuer)
	if err != nil {
		return nil, fmt.Errorf("OIDC discovery failed for %s: %w", conf.Issuer, err)
	}

	return &OIDCProvider{
		oauth: &oauth2.Config{
			ClientID:     conf.ClientID,
			ClientSecret: conf.ClientSecret,
			RedirectURL:  conf.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: conf.ClientID}),
	}, nil
}

func (p *OIDCProvider) AuthCodeURL(state, nonce string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

func (p *OIDCProvider) Exchange(ctx context.Context, code, nonce string) (Claims, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Claims{}, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Claims{}, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Claims{}, fmt.Errorf("ID token verification failed: %w", err)
	}

	if idToken.Nonce != nonce {
		return Claims{}, ErrNonceMismatch
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return Claims{}, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	if claims.UserID == "" {
		claims.UserID = idToken.Subject
	}

	return claims, nil
}
