// Package storage persists user data as one JSON document per data type in
// the per-user data directory.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Known data types.
const (
	TypeCustomStations    = "customStations"
	TypeFavorites         = "favorites"
	TypeFavoritedStations = "favoritedStations"
	TypeVolume            = "volume"
	TypeDiscordRPCEnabled = "discordRPCEnabled"
	TypeMinimizeToTray    = "minimizeToTrayEnabled"
	TypeLastStation       = "lastStation"
)

// ErrInvalidType is returned for data type names that cannot be used as a
// file name.
var ErrInvalidType = errors.New("invalid data type")

var validType = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// defaultValue returns the document written when a data type is first loaded.
func defaultValue(dataType string) json.RawMessage {
	switch dataType {
	case TypeCustomStations, TypeFavorites, TypeFavoritedStations:
		return json.RawMessage(`[]`)
	case TypeVolume:
		return json.RawMessage(`50`)
	case TypeDiscordRPCEnabled:
		return json.RawMessage(`true`)
	case TypeMinimizeToTray:
		return json.RawMessage(`false`)
	default:
		return json.RawMessage(`null`)
	}
}

// Store reads and writes data documents in a directory. It is safe for
// concurrent use.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// Path returns the file backing dataType.
func (s *Store) Path(dataType string) (string, error) {
	if !validType.MatchString(dataType) {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, dataType)
	}
	return filepath.Join(s.dir, dataType+".json"), nil
}

// Save writes data for dataType. The content must be valid JSON; it is
// stored pretty-printed.
func (s *Store) Save(dataType string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(dataType, data)
}

func (s *Store) save(dataType string, data json.RawMessage) error {
	path, err := s.Path(dataType)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("failed to save %s: content is not valid JSON", dataType)
	}

	// Indent keeps numbers as written; decoding into any would round
	// integers above 2^53.
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", "  "); err != nil {
		return fmt.Errorf("failed to format %s for saving: %w", dataType, err)
	}
	pretty := buf.Bytes()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pretty, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dataType, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", dataType, err)
	}

	s.logger.Debug("saved data", "type", dataType, "path", path, "bytes", len(pretty))
	return nil
}

// Load returns the document for dataType. A missing document is created
// with the type's default value, which is then returned.
func (s *Store) Load(dataType string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(dataType)
}

func (s *Store) load(dataType string) (json.RawMessage, error) {
	path, err := s.Path(dataType)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", dataType, err)
		}
		def := defaultValue(dataType)
		s.logger.Debug("creating default data", "type", dataType, "path", path)
		if err := s.save(dataType, def); err != nil {
			return nil, err
		}
		return def, nil
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to unmarshal %s: content is not valid JSON", dataType)
	}
	return json.RawMessage(data), nil
}

// LoadInto decodes the document for dataType into v.
func (s *Store) LoadInto(dataType string, v any) error {
	data, err := s.Load(dataType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", dataType, err)
	}
	return nil
}

// SaveFrom encodes v and saves it as dataType.
func (s *Store) SaveFrom(dataType string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", dataType, err)
	}
	return s.Save(dataType, data)
}

// update runs fn on the decoded document and saves the result while holding
// the lock, so concurrent read-modify-write calls do not lose updates.
func update[T any](s *Store, dataType string, fn func(*T)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(dataType)
	if err != nil {
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", dataType, err)
	}
	fn(&v)

	out, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", dataType, err)
	}
	return s.save(dataType, out)
}
