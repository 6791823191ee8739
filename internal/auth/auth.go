// Package auth supplies the authentication capability the sync layer
// depends on: a signed-in flag and a bearer token, backed by Google OAuth2
// with the refresh token persisted in the local store's app_config table.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"draftvault/internal/domain"
)

// app_config keys consumed by this package.
const (
	ClientIDKey     = "client_id"
	APIKeyKey       = "api_key"
	refreshTokenKey = "refresh_token"
	idTokenKey      = "id_token"
)

// expirySkew refreshes access tokens slightly before they lapse.
const expirySkew = 30 * time.Second

// Authenticator is the capability consumed by the Book Manager.
type Authenticator interface {
	// SignedIn reports whether credentials are present. It does not
	// verify them against the provider.
	SignedIn() bool

	// Token returns a valid bearer token, refreshing if needed. It fails
	// with domain.ErrUnauthenticated when signed out or when the stored
	// credentials cannot be refreshed (which also signs the user out).
	Token(ctx context.Context) (string, error)
}

// ConfigStore is the slice of the local store this package needs.
type ConfigStore interface {
	GetConfigValue(ctx context.Context, name string) (string, error)
	SetConfigValue(ctx context.Context, name, value string) error
	DeleteConfigValue(ctx context.Context, name string) error
}

// GoogleAuthenticator implements Authenticator on Google OAuth2.
type GoogleAuthenticator struct {
	cfg    *oauth2.Config
	store  ConfigStore
	logger *slog.Logger

	mu      sync.Mutex
	current *oauth2.Token
}

// NewGoogle builds an authenticator from the client identifier and API key
// stored in app_config. redirectURL receives the authorization code during
// the interactive login flow.
func NewGoogle(ctx context.Context, store ConfigStore, redirectURL string, logger *slog.Logger) (*GoogleAuthenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clientID, err := store.GetConfigValue(ctx, ClientIDKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("read client id: %w", err)
	}
	apiKey, err := store.GetConfigValue(ctx, APIKeyKey)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("read api key: %w", err)
	}

	return &GoogleAuthenticator{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: apiKey,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/drive.file",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
		store:  store,
		logger: logger,
	}, nil
}

// SignedIn reports whether a refresh token is on record.
func (a *GoogleAuthenticator) SignedIn() bool {
	_, err := a.store.GetConfigValue(context.Background(), refreshTokenKey)
	return err == nil
}

// AuthURL returns the URL the user visits to grant access.
func (a *GoogleAuthenticator) AuthURL(state string) string {
	return a.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens and persists them.
func (a *GoogleAuthenticator) Exchange(ctx context.Context, code string) error {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return errors.New("authorization response carried no refresh token")
	}
	if err := a.store.SetConfigValue(ctx, refreshTokenKey, tok.RefreshToken); err != nil {
		return err
	}
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		if err := a.store.SetConfigValue(ctx, idTokenKey, idToken); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.current = tok
	a.mu.Unlock()
	return nil
}

// SignOut discards the stored credentials.
func (a *GoogleAuthenticator) SignOut(ctx context.Context) error {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
	if err := a.store.DeleteConfigValue(ctx, refreshTokenKey); err != nil {
		return err
	}
	return a.store.DeleteConfigValue(ctx, idTokenKey)
}

// Token returns a valid access token, refreshing through the stored refresh
// token when the cached one has lapsed. A refresh failure signs the user
// out: the refresh token is unrecoverable at that point.
func (a *GoogleAuthenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil && a.current.Expiry.After(time.Now().Add(expirySkew)) {
		return a.current.AccessToken, nil
	}

	refresh, err := a.store.GetConfigValue(ctx, refreshTokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}

	tok, err := a.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		a.logger.Warn("token refresh failed, signing out", "error", err)
		a.current = nil
		_ = a.store.DeleteConfigValue(ctx, refreshTokenKey)
		_ = a.store.DeleteConfigValue(ctx, idTokenKey)
		return "", fmt.Errorf("%w: token refresh failed: %v", domain.ErrUnauthenticated, err)
	}

	// Google may rotate the refresh token.
	if tok.RefreshToken != "" && tok.RefreshToken != refresh {
		if err := a.store.SetConfigValue(ctx, refreshTokenKey, tok.RefreshToken); err != nil {
			return "", err
		}
	}
	a.current = tok
	return tok.AccessToken, nil
}

// Email returns the signed-in account's email, read from the stored ID
// token's claims. The token is Google-signed; it is parsed without
// verification because it is only displayed, never trusted for access.
func (a *GoogleAuthenticator) Email(ctx context.Context) (string, error) {
	raw, err := a.store.GetConfigValue(ctx, idTokenKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrUnauthenticated
	}
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("parse id token: %w", err)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errors.New("id token carries no email claim")
	}
	return email, nil
}

// HTTPClient returns an http.Client whose transport injects fresh bearer
// tokens, suitable for the Drive object store.
func (a *GoogleAuthenticator) HTTPClient(ctx context.Context) *http.Client {
	return oauth2.NewClient(ctx, tokenSource{ctx: ctx, auth: a})
}

type tokenSource struct {
	ctx  context.Context
	auth *GoogleAuthenticator
}

func (s tokenSource) Token() (*oauth2.Token, error) {
	access, err := s.auth.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	s.auth.mu.Lock()
	defer s.auth.mu.Unlock()
	if s.auth.current != nil && s.auth.current.AccessToken == access {
		return s.auth.current, nil
	}
	return &oauth2.Token{AccessToken: access}, nil
}

// Static is a fixed-state Authenticator for tests.
type Static struct {
	Signed      bool
	AccessToken string
}

// SignedIn implements Authenticator.
func (s *Static) SignedIn() bool { return s.Signed }

// Token implements Authenticator.
func (s *Static) Token(ctx context.Context) (string, error) {
	if !s.Signed {
		return "", domain.ErrUnauthenticated
	}
	return s.AccessToken, nil
}
