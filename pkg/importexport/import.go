package importexport

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

type ImportResult struct {
	Created int
	Updated int
	Skipped int
}

// ImportCatalog writes parsed entries into the vocabulary catalog for one
// course/unit. Existing words (matched on course, unit, word) are updated
// in place so re-running an import is safe.
func ImportCatalog(gdb *gorm.DB, courseID, unitID uint, entries []CatalogEntry) (ImportResult, error) {
	var result ImportResult
	if len(entries) == 0 {
		return result, nil
	}

	err := gdb.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			examples, err := marshalExamples(entry.Examples)
			if err != nil {
				return err
			}

			var existing db.Vocabulary
			lookup := tx.
				Where("course_id = ? AND unit_id = ? AND word = ?", courseID, unitID, entry.Word).
				First(&existing)
			if lookup.Error == nil {
				existing.Meaning = entry.Meaning
				existing.Pronunciation = entry.Pronunciation
				existing.Hanja = entry.Hanja
				existing.PartOfSpeech = entry.PartOfSpeech
				existing.Examples = examples
				if err := tx.Save(&existing).Error; err != nil {
					return err
				}
				result.Updated++
				continue
			}
			if lookup.Error != gorm.ErrRecordNotFound {
				return lookup.Error
			}

			vocab := db.Vocabulary{
				CourseID:      courseID,
				UnitID:        unitID,
				Word:          entry.Word,
				Meaning:       entry.Meaning,
				Pronunciation: entry.Pronunciation,
				Hanja:         entry.Hanja,
				PartOfSpeech:  entry.PartOfSpeech,
				Examples:      examples,
			}
			if err := tx.Create(&vocab).Error; err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	return result, nil
}

func marshalExamples(examples []string) (datatypes.JSON, error) {
	if len(examples) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(examples)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
