package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	titlePollInterval = 10 * time.Second
	titleFetchTimeout = 15 * time.Second
)

// ErrNoMetadata is returned for streams that do not carry ICY titles.
var ErrNoMetadata = errors.New("stream does not support ICY metadata")

// TitleWatcher polls a stream for its ICY StreamTitle.
type TitleWatcher struct {
	URL       string
	UserAgent string
	Interval  time.Duration
	Client    *http.Client
	Logger    *slog.Logger
}

// NewTitleWatcher creates a watcher polling url every 10 seconds.
func NewTitleWatcher(url, userAgent string, logger *slog.Logger) *TitleWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TitleWatcher{
		URL:       url,
		UserAgent: userAgent,
		Interval:  titlePollInterval,
		Client:    &http.Client{},
		Logger:    logger,
	}
}

// Watch delivers the current title, and every change after it, until ctx
// is cancelled. The channel is closed when watching stops. Streams without
// ICY metadata stop the watch after the first attempt.
func (w *TitleWatcher) Watch(ctx context.Context) <-chan string {
	out := make(chan string, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()

		last := ""
		first := true
		for {
			title, err := w.Fetch(ctx)
			switch {
			case errors.Is(err, ErrNoMetadata):
				w.Logger.Debug("no ICY metadata", "url", w.URL)
				return
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				w.Logger.Debug("failed to fetch stream title", "url", w.URL, "error", err)
			case first || title != last:
				first = false
				last = title
				select {
				case out <- title:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

// Fetch opens the stream with ICY metadata requested and returns the title
// from the first metadata block.
func (w *TitleWatcher) Fetch(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, titleFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", w.UserAgent)
	req.Header.Set("Icy-MetaData", "1")

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	metaint := resp.Header.Get("icy-metaint")
	if metaint == "" {
		return "", ErrNoMetadata
	}
	interval, err := strconv.Atoi(metaint)
	if err != nil || interval <= 0 {
		return "", fmt.Errorf("invalid icy-metaint value %q", metaint)
	}
	return ReadTitle(resp.Body, interval)
}

// ReadTitle skips one audio block of metaint bytes and parses the metadata
// block that follows it.
func ReadTitle(r io.Reader, metaint int) (string, error) {
	br := bufio.NewReader(r)
	if _, err := br.Discard(metaint); err != nil {
		return "", fmt.Errorf("failed to skip audio block: %w", err)
	}

	n, err := br.ReadByte()
	if err != nil {
		return "", fmt.Errorf("failed to read metadata length: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("no metadata in block")
	}

	block := make([]byte, int(n)*16)
	if _, err := io.ReadFull(br, block); err != nil {
		return "", fmt.Errorf("failed to read metadata block: %w", err)
	}

	title, ok := ParseStreamTitle(strings.TrimRight(string(block), "\x00"))
	if !ok {
		return "", fmt.Errorf("no StreamTitle in metadata")
	}
	return title, nil
}

// ParseStreamTitle extracts StreamTitle from a block such as
// "StreamTitle='Artist - Song';StreamUrl='';".
func ParseStreamTitle(meta string) (string, bool) {
	const key = "StreamTitle='"
	i := strings.Index(meta, key)
	if i < 0 {
		return "", false
	}
	rest := meta[i+len(key):]
	if end := strings.Index(rest, "';"); end >= 0 {
		rest = rest[:end]
	} else {
		rest = strings.TrimSuffix(rest, "'")
	}
	return strings.TrimSpace(rest), true
}
