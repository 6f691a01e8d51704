package parse

import (
	"fmt"
	"strings"
)

// UnrecognizedFormatError is returned when a file extension maps to no
// known vendor export.
type UnrecognizedFormatError struct {
	Extension string
}

func (e *UnrecognizedFormatError) Error() string {
	return fmt.Sprintf("unrecognized file format %q: expected a spreadsheet or delimited-text export", e.Extension)
}

// MissingSheetError is returned when a spreadsheet export lacks a required
// worksheet.
type MissingSheetError struct {
	Sheet string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("spreadsheet is missing required sheet %q", e.Sheet)
}

// MissingColumnsError is returned when a delimited-text header lacks one or
// more required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("file is missing required column(s): %s", strings.Join(e.Columns, ", "))
}
