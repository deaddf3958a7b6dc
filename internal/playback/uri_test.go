package playback

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_WebLink(t *testing.T) {
	body, err := Normalize("https://open.spotify.com/track/abc123?si=x")
	require.NoError(t, err)
	require.Equal(t, []string{"spotify:track:abc123"}, body.URIs)
	require.Empty(t, body.ContextURI)
}

func TestNormalize_WebLink_Playlist(t *testing.T) {
	body, err := Normalize("https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc&nd=1")
	require.NoError(t, err)
	require.Equal(t, "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M", body.ContextURI)
	require.Empty(t, body.URIs)
}

func TestNormalize_CanonicalTrack(t *testing.T) {
	body, err := Normalize("spotify:track:abc123")
	require.NoError(t, err)
	require.Equal(t, []string{"spotify:track:abc123"}, body.URIs)
}

func TestNormalize_ContextKinds(t *testing.T) {
	for _, kind := range []string{"album", "playlist", "artist", "show", "episode"} {
		body, err := Normalize("spotify:" + kind + ":id123")
		require.NoError(t, err, kind)
		require.Equal(t, "spotify:"+kind+":id123", body.ContextURI, kind)
		require.Empty(t, body.URIs, kind)
	}
}

func TestNormalize_BareTrackID(t *testing.T) {
	body, err := Normalize("abc123")
	require.NoError(t, err)
	require.Equal(t, []string{"spotify:track:abc123"}, body.URIs)
}

func TestNormalize_TrimsWhitespace(t *testing.T) {
	body, err := Normalize("  spotify:track:abc123  ")
	require.NoError(t, err)
	require.Equal(t, []string{"spotify:track:abc123"}, body.URIs)
}

func TestNormalize_Unsupported(t *testing.T) {
	_, err := Normalize("not a uri/with spaces")
	require.ErrorIs(t, err, ErrUnsupportedURI)
}

func TestNormalize_UnsupportedKind(t *testing.T) {
	_, err := Normalize("spotify:user:someone")
	require.ErrorIs(t, err, ErrUnsupportedURI)
}

func TestNormalize_Empty(t *testing.T) {
	_, err := Normalize("   ")
	require.ErrorIs(t, err, ErrUnsupportedURI)
}

func TestNormalize_WebLinkExtractionFailure_FallsThrough(t *testing.T) {
	// Only one path segment after the host: extraction fails and the
	// original text (which has separators) is unsupported.
	_, err := Normalize("https://open.spotify.com/track")
	require.ErrorIs(t, err, ErrUnsupportedURI)
}
