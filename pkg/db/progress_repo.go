package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// ProgressRepo is the narrow store surface the scheduler works against.
// All queries are plain reads; UpsertProgress is the only write and is
// atomic on the (user_id, vocabulary_id) composite key.
type ProgressRepo struct {
	gdb *gorm.DB
}

func NewProgressRepo(gdb *gorm.DB) *ProgressRepo {
	return &ProgressRepo{gdb: gdb}
}

func (r *ProgressRepo) GetVocabulary(id uint) (*Vocabulary, error) {
	var vocab Vocabulary
	if err := r.gdb.First(&vocab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vocab, nil
}

// GetProgress returns nil without error when the pair has never been graded.
func (r *ProgressRepo) GetProgress(userID int64, vocabularyID uint) (*ProgressRecord, error) {
	var rec ProgressRecord
	err := r.gdb.
		Where("user_id = ? AND vocabulary_id = ?", userID, vocabularyID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertProgress writes the full record keyed by (user_id, vocabulary_id).
// The ON CONFLICT clause makes the read-modify-write of a grading call
// land as one atomic statement, so concurrent grades for the same pair
// cannot interleave into a half-applied row.
func (r *ProgressRepo) UpsertProgress(rec *ProgressRecord) error {
	return r.gdb.
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "vocabulary_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status",
				"interval_days",
				"ease_factor",
				"streak",
				"mistake_count",
				"next_review_at",
				"last_reviewed_at",
				"updated_at",
			}),
		}).
		Create(rec).Error
}

// QueryDue returns graded pairs in scope whose next review time has passed,
// most overdue first. Ties on next_review_at break on vocabulary id so the
// batch order is stable across identical calls.
func (r *ProgressRepo) QueryDue(userID int64, courseID, unitID uint, now time.Time, limit int) ([]ProgressRecord, error) {
	var records []ProgressRecord
	query := r.scopedProgress(userID, courseID, unitID).
		Where("progress_records.next_review_at IS NOT NULL AND progress_records.next_review_at <= ?", now).
		Order("progress_records.next_review_at ASC, progress_records.vocabulary_id ASC").
		Limit(limit)
	if err := query.Preload("Vocabulary").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// QueryLearning returns pairs in scope still in the learning state,
// excluding already-selected vocabulary ids.
func (r *ProgressRepo) QueryLearning(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]ProgressRecord, error) {
	var records []ProgressRecord
	query := r.scopedProgress(userID, courseID, unitID).
		Where("progress_records.status = ?", StatusLearning).
		Order("progress_records.vocabulary_id ASC").
		Limit(limit)
	if len(exclude) > 0 {
		query = query.Where("progress_records.vocabulary_id NOT IN ?", exclude)
	}
	if err := query.Preload("Vocabulary").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// QueryNew returns catalog entries in scope the user has never been graded
// on, excluding already-selected vocabulary ids.
func (r *ProgressRepo) QueryNew(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]Vocabulary, error) {
	studied := r.gdb.
		Model(&ProgressRecord{}).
		Select("vocabulary_id").
		Where("user_id = ?", userID)

	query := r.gdb.
		Model(&Vocabulary{}).
		Where("course_id = ?", courseID).
		Where("id NOT IN (?)", studied).
		Order("id ASC").
		Limit(limit)
	if unitID != 0 {
		query = query.Where("unit_id = ?", unitID)
	}
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	var vocab []Vocabulary
	if err := query.Find(&vocab).Error; err != nil {
		return nil, err
	}
	return vocab, nil
}

// ListProgress returns all of a user's progress rows in a course with their
// vocabulary preloaded, for export.
func (r *ProgressRepo) ListProgress(userID int64, courseID uint) ([]ProgressRecord, error) {
	var records []ProgressRecord
	err := r.scopedProgress(userID, courseID, 0).
		Order("progress_records.vocabulary_id ASC").
		Preload("Vocabulary").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ProgressRepo) CreateReviewLog(entry *ReviewLog) error {
	return r.gdb.Create(entry).Error
}

// StatusCounts aggregates a user's progress rows in a course by status.
func (r *ProgressRepo) StatusCounts(userID int64, courseID uint) (map[Status]int64, error) {
	type row struct {
		Status Status
		Total  int64
	}
	var rows []row
	err := r.scopedProgress(userID, courseID, 0).
		Select("progress_records.status AS status, COUNT(*) AS total").
		Group("progress_records.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *ProgressRepo) CountDue(userID int64, courseID uint, now time.Time) (int64, error) {
	var total int64
	err := r.scopedProgress(userID, courseID, 0).
		Where("progress_records.next_review_at IS NOT NULL AND progress_records.next_review_at <= ?", now).
		Count(&total).Error
	return total, err
}

func (r *ProgressRepo) scopedProgress(userID int64, courseID, unitID uint) *gorm.DB {
	query := r.gdb.
		Model(&ProgressRecord{}).
		Joins("JOIN vocabularies ON vocabularies.id = progress_records.vocabulary_id").
		Where("progress_records.user_id = ?", userID).
		Where("vocabularies.course_id = ?", courseID)
	if unitID != 0 {
		query = query.Where("vocabularies.unit_id = ?", unitID)
	}
	return query
}
