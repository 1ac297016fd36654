// Package playlist resolves .pls and .m3u playlist URLs to stream URLs.
package playlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

const fetchTimeout = 15 * time.Second

// IsPlaylistURL reports whether rawURL points at a playlist file rather
// than at an audio stream.
func IsPlaylistURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch strings.ToLower(path.Ext(u.Path)) {
	case ".pls", ".m3u":
		return true
	}
	return false
}

// Resolve returns the stream URL for rawURL, fetching and parsing it first if
// it is a playlist.
func Resolve(ctx context.Context, rawURL, userAgent string) (string, error) {
	if !IsPlaylistURL(rawURL) {
		return rawURL, nil
	}
	return Fetch(ctx, rawURL, userAgent)
}

// Fetch downloads a playlist and returns its first stream URL.
func Fetch(ctx context.Context, playlistURL, userAgent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, playlistURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get playlist from %s: %w", playlistURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for playlist %s", resp.StatusCode, playlistURL)
	}

	streamURL, err := Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w in playlist %s", err, playlistURL)
	}
	return streamURL, nil
}

// Parse returns the first entry of a PLS or M3U playlist. The format is
// detected from the content.
func Parse(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	isPLS := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "[playlist]") {
			isPLS = true
			continue
		}
		if isPLS {
			if key, value, ok := strings.Cut(line, "="); ok && strings.EqualFold(strings.TrimSpace(key), "File1") {
				return strings.TrimSpace(value), nil
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading playlist: %w", err)
	}
	return "", fmt.Errorf("no stream URL found")
}
