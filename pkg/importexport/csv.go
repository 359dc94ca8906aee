package importexport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// CatalogEntry is one parsed vocabulary row before it is attached to a
// course and unit. Columns past word and meaning are optional.
type CatalogEntry struct {
	Word          string
	Meaning       string
	Pronunciation string
	Hanja         string
	PartOfSpeech  string
	Examples      []string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// ParseCatalogCSV reads vocabulary rows from CSV data. The delimiter is
// sniffed from the first records, a UTF-8 BOM is tolerated, and a header
// row is skipped when detected. Returns the entries and the count of
// skipped rows.
func ParseCatalogCSV(data []byte) ([]CatalogEntry, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var entries []CatalogEntry
	skipped := 0
	checkedHeader := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				continue
			}
		}
		entry, ok := entryFromRecord(record)
		if !ok {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	return entries, skipped, nil
}

// entryFromRecord maps columns word, meaning, pronunciation, hanja, part of
// speech, then any number of example sentences.
func entryFromRecord(record []string) (CatalogEntry, bool) {
	if len(record) < 2 {
		return CatalogEntry{}, false
	}
	word := strings.TrimSpace(record[0])
	meaning := strings.TrimSpace(record[1])
	if word == "" || meaning == "" {
		return CatalogEntry{}, false
	}
	entry := CatalogEntry{Word: word, Meaning: meaning}
	if len(record) > 2 {
		entry.Pronunciation = strings.TrimSpace(record[2])
	}
	if len(record) > 3 {
		entry.Hanja = strings.TrimSpace(record[3])
	}
	if len(record) > 4 {
		entry.PartOfSpeech = strings.TrimSpace(record[4])
	}
	for _, field := range record[min(len(record), 5):] {
		if example := strings.TrimSpace(field); example != "" {
			entry.Examples = append(entry.Examples, example)
		}
	}
	return entry, true
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++

		if len(record) < 2 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	if len(record) < 2 {
		return false
	}
	left := strings.ToLower(strings.TrimSpace(record[0]))
	right := strings.ToLower(strings.TrimSpace(record[1]))
	headers := map[string]struct{}{
		"word":        {},
		"hangul":      {},
		"korean":      {},
		"meaning":     {},
		"translation": {},
	}
	_, leftOK := headers[left]
	_, rightOK := headers[right]
	return leftOK && rightOK
}
