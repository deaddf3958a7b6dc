package auth

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Authorize returns a usable token, reusing the cache when possible and
// otherwise running the browser handshake: bind the local callback
// listener, open the authorize URL, wait (bounded) for the redirect and
// exchange the code.
func Authorize(ctx context.Context, provider AuthProvider, redirectURI string, waitTimeout time.Duration, logger *log.Logger) (*oauth2.Token, error) {
	if logger == nil {
		logger = log.Default()
	}

	if tok, ok := provider.GetCachedToken(); ok {
		return tok, nil
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URI %q: %w", redirectURI, err)
	}

	state := uuid.NewString()
	listener := NewListener(parsed.Host, parsed.Path, state, logger)
	if err := listener.Start(); err != nil {
		return nil, err
	}

	authURL := provider.GetAuthorizeURL(state)
	logger.Printf("Complete the Spotify authorization in your browser: %s", authURL)
	if err := OpenBrowser(authURL); err != nil {
		logger.Printf("Warning: could not open browser: %v", err)
	}

	code, err := listener.Wait(ctx, waitTimeout)
	if err != nil {
		return nil, err
	}

	return provider.ExchangeCode(ctx, code)
}
