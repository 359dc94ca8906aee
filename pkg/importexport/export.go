package importexport

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

// BuildProgressCSV serializes a user's progress rows, one line per studied
// word. The BOM keeps spreadsheet tools happy with hangul content.
func BuildProgressCSV(records []db.ProgressRecord) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	header := []string{"word", "meaning", "status", "interval_days", "ease_factor", "streak", "mistakes", "next_review_at"}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, rec := range records {
		nextReview := ""
		if rec.NextReviewAt != nil {
			nextReview = rec.NextReviewAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			rec.Vocabulary.Word,
			rec.Vocabulary.Meaning,
			rec.Status.String(),
			strconv.Itoa(rec.IntervalDays),
			strconv.FormatFloat(rec.EaseFactor, 'f', 2, 64),
			strconv.Itoa(rec.Streak),
			strconv.Itoa(rec.MistakeCount),
			nextReview,
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("progress-%s.csv", now.Format("20060102"))
}

func SortRecordsForExport(records []db.ProgressRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Vocabulary.Word == records[j].Vocabulary.Word {
			return records[i].VocabularyID < records[j].VocabularyID
		}
		return records[i].Vocabulary.Word < records[j].Vocabulary.Word
	})
}
