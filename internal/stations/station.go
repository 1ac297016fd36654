// Package stations fetches and converts stations from the radio-browser
// directory and manages user-defined stations.
package stations

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const unknownStationName = "Unknown Station"

// Station is a playable radio station.
type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Favicon  string   `json:"favicon,omitempty"`
	Country  string   `json:"country,omitempty"`
	Language string   `json:"language,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Bitrate  int      `json:"bitrate,omitempty"`
	Codec    string   `json:"codec,omitempty"`
	Votes    int      `json:"votes,omitempty"`
	IsCustom bool     `json:"isCustom,omitempty"`
}

// Description returns a one-line summary used in lists.
func (s Station) Description() string {
	var parts []string
	if s.Country != "" {
		parts = append(parts, s.Country)
	}
	if len(s.Tags) > 0 {
		parts = append(parts, strings.Join(s.Tags, ", "))
	}
	if s.Bitrate > 0 {
		parts = append(parts, fmt.Sprintf("%d kbps", s.Bitrate))
	}
	if s.IsCustom {
		parts = append(parts, "custom")
	}
	return strings.Join(parts, " · ")
}

// Country is a country with its station count.
type Country struct {
	Name         string `json:"name"`
	StationCount int    `json:"stationcount"`
}

// Tag is a genre tag with its station count.
type Tag struct {
	Name         string `json:"name"`
	StationCount int    `json:"stationcount"`
}

// apiStation is the station shape returned by radio-browser.
type apiStation struct {
	StationUUID string `json:"stationuuid"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	URLResolved string `json:"url_resolved"`
	Homepage    string `json:"homepage"`
	Favicon     string `json:"favicon"`
	Tags        string `json:"tags"`
	Country     string `json:"country"`
	CountryCode string `json:"countrycode"`
	Language    string `json:"language"`
	Votes       int    `json:"votes"`
	Codec       string `json:"codec"`
	Bitrate     int    `json:"bitrate"`
	LastCheckOK int    `json:"lastcheckok"`
	ClickCount  int    `json:"clickcount"`
}

func (a apiStation) toStation() Station {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = unknownStationName
	}
	streamURL := a.URLResolved
	if streamURL == "" {
		streamURL = a.URL
	}
	return Station{
		ID:       a.StationUUID,
		Name:     name,
		URL:      streamURL,
		Favicon:  a.Favicon,
		Country:  a.Country,
		Language: a.Language,
		Tags:     SplitTags(a.Tags),
		Bitrate:  a.Bitrate,
		Codec:    a.Codec,
		Votes:    a.Votes,
	}
}

// SplitTags splits a comma separated tag list, dropping blanks.
func SplitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// PresenceTags joins the first max tags with sep for the presence state
// line. It returns nil when there is nothing to show so the line is left out.
func PresenceTags(tags []string, max int, sep string) *string {
	if len(tags) == 0 || max == 0 {
		return nil
	}
	if max > 0 && len(tags) > max {
		tags = tags[:max]
	}
	joined := strings.Join(tags, sep)
	return &joined
}

// ErrInvalidStation is returned for custom stations without a name or with a
// malformed URL.
var ErrInvalidStation = errors.New("invalid station")

// NewCustomStation validates and creates a user-defined station with a
// fresh ULID.
func NewCustomStation(name, streamURL, tags string) (Station, error) {
	name = strings.TrimSpace(name)
	streamURL = strings.TrimSpace(streamURL)
	if name == "" || streamURL == "" {
		return Station{}, fmt.Errorf("%w: name and URL are required", ErrInvalidStation)
	}
	u, err := url.Parse(streamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Station{}, fmt.Errorf("%w: %q is not a valid URL", ErrInvalidStation, streamURL)
	}

	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return Station{}, fmt.Errorf("failed to generate station id: %w", err)
	}

	return Station{
		ID:       "custom-" + id.String(),
		Name:     name,
		URL:      streamURL,
		Tags:     SplitTags(tags),
		IsCustom: true,
	}, nil
}

//go:embed defaults.json
var defaultStationsJSON []byte

// Defaults returns the built-in station list shown before anything has been
// fetched.
func Defaults() []Station {
	var list []Station
	if err := json.Unmarshal(defaultStationsJSON, &list); err != nil {
		return nil
	}
	return list
}
