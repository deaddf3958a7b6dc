package playback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Vasilis92/Spotify-Alarm/internal/spotify"
)

// ErrUnsupportedURI is returned for text that cannot be turned into a
// playback request.
var ErrUnsupportedURI = errors.New("unsupported or invalid playback URI")

const webLinkHost = "open.spotify.com"

// contextKinds are the URI kinds played as a context reference rather
// than a single-item list.
var contextKinds = []string{"album", "playlist", "artist", "show", "episode"}

// Normalize turns raw alarm text into a start-playback request body.
//
// Accepted forms:
//   - an open.spotify.com link, rewritten to the canonical spotify:kind:id
//   - a canonical spotify:track:id, played as a one-item list
//   - a canonical context URI (album/playlist/artist/show/episode)
//   - a bare id with no ':' or '/', treated as a track id
func Normalize(text string) (spotify.PlayBody, error) {
	uri := strings.TrimSpace(text)
	if uri == "" {
		return spotify.PlayBody{}, fmt.Errorf("%w: empty target", ErrUnsupportedURI)
	}

	if strings.Contains(uri, webLinkHost) {
		if canonical, ok := rewriteWebLink(uri); ok {
			uri = canonical
		}
		// Extraction failure falls through with the original text.
	}

	if strings.HasPrefix(uri, "spotify:track:") {
		return spotify.PlayBody{URIs: []string{uri}}, nil
	}
	for _, kind := range contextKinds {
		if strings.HasPrefix(uri, "spotify:"+kind+":") {
			return spotify.PlayBody{ContextURI: uri}, nil
		}
	}
	if !strings.ContainsAny(uri, ":/") {
		return spotify.PlayBody{URIs: []string{"spotify:track:" + uri}}, nil
	}

	return spotify.PlayBody{}, fmt.Errorf("%w: %q", ErrUnsupportedURI, text)
}

// rewriteWebLink extracts {kind}/{id} following the web-link host and
// rewrites to spotify:kind:id. Query strings are dropped.
func rewriteWebLink(link string) (string, bool) {
	_, rest, found := strings.Cut(link, webLinkHost+"/")
	if !found {
		return "", false
	}
	rest, _, _ = strings.Cut(rest, "?")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return "spotify:" + parts[0] + ":" + parts[1], true
}
