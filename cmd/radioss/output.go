package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatPlain = "plain"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeOutput writes v in the requested format. plain renders the
// human-readable form.
func writeOutput(w io.Writer, format string, v any, plain func(io.Writer) error) error {
	switch strings.ToLower(format) {
	case "", formatPlain:
		return plain(w)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want plain, json or yaml)", format)
	}
}
