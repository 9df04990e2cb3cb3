package storage

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/isoplan/planner/internal/domain/plan"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a query value to a Format; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Download is a rendered export ready to be sent as an attachment.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportFilename builds "<prefix>_<YYYYMMDD>.<ext>".
func ExportFilename(prefix string, format Format, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102"), format)
}

// Export renders doc in the requested format.
func Export(doc *plan.Document, prefix string, format Format, now time.Time) (*Download, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	switch format {
	case FormatJSON:
		data, err = Encode(doc)
		contentType = "application/json"
	case FormatYAML:
		data, err = yaml.Marshal(doc)
		if err != nil {
			err = fmt.Errorf("failed to marshal plan as yaml: %w", err)
		}
		contentType = "application/yaml"
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename:    ExportFilename(prefix, format, now),
		ContentType: contentType,
		Data:        data,
	}, nil
}
