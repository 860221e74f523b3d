// Package report renders aggregation results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON writes v as a single line of JSON, or indented by two spaces
// when pretty is set.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	return nil
}
