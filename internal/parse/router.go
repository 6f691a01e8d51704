package parse

import (
	"path/filepath"
	"strings"

	"github.com/auditline/coverage/internal/types"
)

// Extractor converts one vendor's raw export into canonical call records.
type Extractor interface {
	// Extract returns the filtered, normalized call records.
	Extract(data []byte) ([]types.CallRecord, error)

	// Dates returns every calendar date observed in the file, before any
	// per-row filtering, sorted descending.
	Dates(data []byte) ([]string, error)

	// Format tags results produced from this extractor.
	Format() types.SourceFormat
}

// ForFile selects the extractor matching the file's extension.
func ForFile(name string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx", ".xlsm", ".xls":
		return &SheetExtractor{}, nil
	case ".csv", ".txt":
		return &DelimitedExtractor{}, nil
	default:
		return nil, &UnrecognizedFormatError{Extension: ext}
	}
}
