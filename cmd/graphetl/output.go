package main

import (
	"encoding/json"
	"fmt"
	"io"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeField prints an aligned "label: value" line.
func writeField(w io.Writer, label string, value any) {
	fmt.Fprintf(w, "  %-16s %v\n", label+":", value)
}
