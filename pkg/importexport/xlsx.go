package importexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseCatalogXLSX reads vocabulary rows from the first sheet of an XLSX
// workbook, with the same column layout as the CSV path.
func ParseCatalogXLSX(r io.Reader) ([]CatalogEntry, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	var entries []CatalogEntry
	skipped := 0
	checkedHeader := false

	for _, row := range rows {
		if isEmptyCSVRecord(row) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(row) {
				continue
			}
		}
		entry, ok := entryFromRecord(row)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, skipped, nil
}
