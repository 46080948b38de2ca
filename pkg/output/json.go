// Package output encodes reports for machines: plain JSON and SARIF 2.1.0
// for code-scanning integrations.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/nodehealth/pkg/report"
)

// WriteJSON encodes rep as indented JSON and writes it to w.
func WriteJSON(rep *report.Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
