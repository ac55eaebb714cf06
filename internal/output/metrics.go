package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookintegrate/internal/quality"
	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
)

// Metrics document formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format names a supported metrics format
func ValidFormat(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// WriteMetrics encodes the report as indented JSON or YAML
func WriteMetrics(w io.Writer, report *quality.Report, format string) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case FormatYAML:
		data, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported metrics format: %s", format)
	}
	return nil
}

// MetricsArtifact renders the report in the given format
func MetricsArtifact(path string, report *quality.Report, format string) Artifact {
	return Artifact{
		Path: path,
		Render: func(w io.Writer) error {
			return WriteMetrics(w, report, format)
		},
	}
}

// SchemaArtifact renders the markdown schema document for tables
func SchemaArtifact(path string, tables ...table.Table) Artifact {
	return Artifact{
		Path: path,
		Render: func(w io.Writer) error {
			return quality.WriteSchema(w, tables...)
		},
	}
}
