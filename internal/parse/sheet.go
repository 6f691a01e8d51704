package parse

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/types"
)

// Worksheet names the spreadsheet vendor guarantees per export.
const (
	FiltersSheet = "Filters"
	CallsSheet   = "Calls"
)

// SheetExtractor reads the spreadsheet vendor's export: a Filters sheet
// holding the agent allow-list and a Calls sheet holding call rows.
type SheetExtractor struct{}

func (e *SheetExtractor) Format() types.SourceFormat { return types.SourceSpreadsheet }

// sheetColumns holds header indexes of the Calls sheet; -1 means absent.
type sheetColumns struct {
	direction int
	fromName  int
	fromPhone int
	toName    int
	toPhone   int
	start     int
	length    int
	result    int
}

func (e *SheetExtractor) Extract(data []byte) ([]types.CallRecord, error) {
	f, err := openWorkbook(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	allowed, err := readAllowList(f)
	if err != nil {
		return nil, err
	}

	rows, err := sheetRows(f, CallsSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := locateSheetColumns(rows[0])
	var records []types.CallRecord

	for _, row := range rows[1:] {
		at := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		outbound := strings.ToLower(at(cols.direction)) == "outbound"
		agent := at(cols.toName)
		if outbound {
			agent = at(cols.fromName)
		}

		// Rows resolving to an agent outside the allow-list are dropped
		// silently; they surface only through metrics.
		if _, ok := allowed[agent]; !ok {
			metrics.RowsDroppedTotal.WithLabelValues(string(types.SourceSpreadsheet), "not_on_allowlist").Inc()
			continue
		}

		start, err := ParseSheetTime(at(cols.start))
		if err != nil {
			metrics.RowsDroppedTotal.WithLabelValues(string(types.SourceSpreadsheet), "unparseable_start").Inc()
			continue
		}

		rec := types.CallRecord{
			AgentName:       agent,
			CallStart:       start,
			DurationSeconds: CallLengthSeconds(at(cols.length)),
			Result:          at(cols.result),
		}
		if outbound {
			rec.Direction = types.DirectionOutbound
			rec.ContactName = at(cols.toName)
			rec.ContactPhone = at(cols.toPhone)
		} else {
			rec.Direction = types.DirectionInbound
			rec.ContactName = at(cols.fromName)
			rec.ContactPhone = at(cols.fromPhone)
		}

		records = append(records, rec)
	}

	return records, nil
}

// Dates scans the Calls sheet without applying the allow-list, so the date
// listing reflects the whole file rather than the filtered model.
func (e *SheetExtractor) Dates(data []byte) ([]string, error) {
	f, err := openWorkbook(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := sheetRows(f, CallsSheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := locateSheetColumns(rows[0])
	seen := make(map[string]struct{})
	for _, row := range rows[1:] {
		if cols.start < 0 || cols.start >= len(row) {
			continue
		}
		start, err := ParseSheetTime(row[cols.start])
		if err != nil {
			continue
		}
		seen[start.Format(types.DateKeyLayout)] = struct{}{}
	}

	return sortDatesDescending(seen), nil
}

func openWorkbook(data []byte) (*excelize.File, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	return f, nil
}

// sheetRows reads a worksheet with raw cell values, mapping a missing
// worksheet to the typed failure.
func sheetRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		var notExist excelize.ErrSheetNotExist
		if errors.As(err, &notExist) {
			return nil, &MissingSheetError{Sheet: sheet}
		}
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// readAllowList builds the known-agent set from the second column of the
// Filters sheet, skipping the header row.
func readAllowList(f *excelize.File) (map[string]struct{}, error) {
	rows, err := sheetRows(f, FiltersSheet)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{})
	for i, row := range rows {
		if i == 0 || len(row) < 2 {
			continue
		}
		if name := strings.TrimSpace(row[1]); name != "" {
			allowed[name] = struct{}{}
		}
	}
	return allowed, nil
}

func locateSheetColumns(header []string) sheetColumns {
	cols := sheetColumns{
		direction: -1, fromName: -1, fromPhone: -1,
		toName: -1, toPhone: -1, start: -1, length: -1, result: -1,
	}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "direction":
			cols.direction = i
		case "from name":
			cols.fromName = i
		case "from":
			cols.fromPhone = i
		case "to name":
			cols.toName = i
		case "to":
			cols.toPhone = i
		case "start time":
			cols.start = i
		case "call length":
			cols.length = i
		case "result":
			cols.result = i
		}
	}
	return cols
}
