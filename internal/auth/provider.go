package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	spotifyoauth "golang.org/x/oauth2/spotify"
)

// Scopes are the player permissions the daemon needs.
var Scopes = []string{
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
}

// AuthProvider is the capability the core depends on to obtain a token.
// It is instance-scoped: concurrent authorization attempts use separate
// listeners and never share code-holder state.
type AuthProvider interface {
	GetCachedToken() (*oauth2.Token, bool)
	GetAuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
}

// Provider implements AuthProvider over the standard authorization-code
// flow, caching the refresh token in a local file.
type Provider struct {
	config    *oauth2.Config
	cachePath string
	logger    *log.Logger
}

// NewProvider creates a Provider. cachePath is where the token JSON lives.
func NewProvider(clientID, clientSecret, redirectURL, cachePath string, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     spotifyoauth.Endpoint,
		},
		cachePath: cachePath,
		logger:    logger,
	}
}

// GetCachedToken loads the cached token if one exists. An expired access
// token is still usable as long as it carries a refresh token.
func (p *Provider) GetCachedToken() (*oauth2.Token, bool) {
	raw, err := os.ReadFile(p.cachePath)
	if err != nil {
		return nil, false
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		p.logger.Printf("Warning: ignoring unreadable token cache %s: %v", p.cachePath, err)
		return nil, false
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, false
	}
	return &tok, true
}

// GetAuthorizeURL returns the browser URL that starts the handshake.
func (p *Provider) GetAuthorizeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode swaps the authorization code for a token and caches it.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := p.SaveToken(tok); err != nil {
		p.logger.Printf("Warning: could not cache token: %v", err)
	}
	return tok, nil
}

// SaveToken writes the token to the cache file.
func (p *Provider) SaveToken(tok *oauth2.Token) error {
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.cachePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.cachePath, raw, 0o600)
}

// Client returns an HTTP client that injects the token, refreshes it when
// needed and persists refreshed tokens back to the cache.
func (p *Provider) Client(ctx context.Context, tok *oauth2.Token) *http.Client {
	src := &savingTokenSource{
		src:      p.config.TokenSource(ctx, tok),
		provider: p,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src))
}

// savingTokenSource persists every token the inner source mints, so a
// refreshed access token survives a restart.
type savingTokenSource struct {
	src      oauth2.TokenSource
	provider *Provider
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if err := s.provider.SaveToken(tok); err != nil {
		s.provider.logger.Printf("Warning: could not cache refreshed token: %v", err)
	}
	return tok, nil
}
