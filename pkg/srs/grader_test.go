package srs

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

// fakeStore is the in-memory stand-in for the progress store used by both
// grader and selector tests.
type fakeStore struct {
	vocab    map[uint]db.Vocabulary
	progress map[string]db.ProgressRecord
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vocab:    make(map[uint]db.Vocabulary),
		progress: make(map[string]db.ProgressRecord),
	}
}

func progressKey(userID int64, vocabularyID uint) string {
	return fmt.Sprintf("%d:%d", userID, vocabularyID)
}

func (f *fakeStore) addVocabulary(v db.Vocabulary) {
	f.vocab[v.ID] = v
}

func (f *fakeStore) GetVocabulary(id uint) (*db.Vocabulary, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	v, ok := f.vocab[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (f *fakeStore) GetProgress(userID int64, vocabularyID uint) (*db.ProgressRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	rec, ok := f.progress[progressKey(userID, vocabularyID)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeStore) UpsertProgress(rec *db.ProgressRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	copied := *rec
	copied.Vocabulary = f.vocab[rec.VocabularyID]
	f.progress[progressKey(rec.UserID, rec.VocabularyID)] = copied
	return nil
}

func (f *fakeStore) inScope(rec db.ProgressRecord, userID int64, courseID, unitID uint) bool {
	if rec.UserID != userID {
		return false
	}
	v, ok := f.vocab[rec.VocabularyID]
	if !ok || v.CourseID != courseID {
		return false
	}
	if unitID != AllUnits && v.UnitID != unitID {
		return false
	}
	return true
}

func (f *fakeStore) QueryDue(userID int64, courseID, unitID uint, now time.Time, limit int) ([]db.ProgressRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var due []db.ProgressRecord
	for _, rec := range f.progress {
		if !f.inScope(rec, userID, courseID, unitID) {
			continue
		}
		if rec.NextReviewAt == nil || rec.NextReviewAt.After(now) {
			continue
		}
		due = append(due, rec)
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].NextReviewAt.Equal(*due[j].NextReviewAt) {
			return due[i].NextReviewAt.Before(*due[j].NextReviewAt)
		}
		return due[i].VocabularyID < due[j].VocabularyID
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStore) QueryLearning(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]db.ProgressRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	excluded := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var learning []db.ProgressRecord
	for _, rec := range f.progress {
		if !f.inScope(rec, userID, courseID, unitID) {
			continue
		}
		if rec.Status != db.StatusLearning {
			continue
		}
		if _, skip := excluded[rec.VocabularyID]; skip {
			continue
		}
		learning = append(learning, rec)
	}
	sort.Slice(learning, func(i, j int) bool {
		return learning[i].VocabularyID < learning[j].VocabularyID
	})
	if len(learning) > limit {
		learning = learning[:limit]
	}
	return learning, nil
}

func (f *fakeStore) QueryNew(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]db.Vocabulary, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	excluded := make(map[uint]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}
	var fresh []db.Vocabulary
	for _, v := range f.vocab {
		if v.CourseID != courseID {
			continue
		}
		if unitID != AllUnits && v.UnitID != unitID {
			continue
		}
		if _, studied := f.progress[progressKey(userID, v.ID)]; studied {
			continue
		}
		if _, skip := excluded[v.ID]; skip {
			continue
		}
		fresh = append(fresh, v)
	}
	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].ID < fresh[j].ID
	})
	if len(fresh) > limit {
		fresh = fresh[:limit]
	}
	return fresh, nil
}

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestApplyQualityFirstSuccess(t *testing.T) {
	rec := NewRecord(1, 10)

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.Status != db.StatusLearning {
		t.Fatalf("expected LEARNING, got %v", rec.Status)
	}
	if rec.IntervalDays != 1 || rec.Streak != 1 || rec.MistakeCount != 0 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.EaseFactor != 2.5 {
		t.Fatalf("expected ease to stay 2.5, got %v", rec.EaseFactor)
	}
	if rec.NextReviewAt == nil || !rec.NextReviewAt.Equal(testNow.AddDate(0, 0, 1)) {
		t.Fatalf("expected next review in 1 day, got %v", rec.NextReviewAt)
	}
	if rec.LastReviewedAt == nil || !rec.LastReviewedAt.Equal(testNow) {
		t.Fatalf("expected last reviewed now, got %v", rec.LastReviewedAt)
	}
}

func TestApplyQualityLearningGraduates(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusLearning, IntervalDays: 2, EaseFactor: 2.5, Streak: 2,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.Status != db.StatusReview {
		t.Fatalf("expected REVIEW at interval 3, got %v", rec.Status)
	}
	if rec.IntervalDays != 3 || rec.Streak != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestApplyQualityLearningStaysBelowGraduation(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusLearning, IntervalDays: 1, EaseFactor: 2.5, Streak: 1,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.Status != db.StatusLearning || rec.IntervalDays != 2 || rec.Streak != 2 {
		t.Fatalf("expected LEARNING with interval 2, got %+v", rec)
	}
}

func TestApplyQualityReviewGrowth(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusReview, IntervalDays: 10, EaseFactor: 2.0, Streak: 5,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.IntervalDays != 20 {
		t.Fatalf("expected interval 20, got %d", rec.IntervalDays)
	}
	if rec.EaseFactor != 2.1 {
		t.Fatalf("expected ease 2.1, got %v", rec.EaseFactor)
	}
	if rec.Status != db.StatusReview {
		t.Fatalf("expected REVIEW (20 is not past mastery), got %v", rec.Status)
	}
	if rec.Streak != 6 {
		t.Fatalf("expected streak 6, got %d", rec.Streak)
	}
}

func TestApplyQualityReviewReachesMastered(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusReview, IntervalDays: 16, EaseFactor: 2.0, Streak: 7,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.IntervalDays != 32 {
		t.Fatalf("expected interval 32, got %d", rec.IntervalDays)
	}
	if rec.Status != db.StatusMastered {
		t.Fatalf("expected MASTERED past 30 days, got %v", rec.Status)
	}
}

func TestApplyQualityMasteredKeepsGrowing(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusMastered, IntervalDays: 40, EaseFactor: 2.2, Streak: 9,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.IntervalDays != 88 {
		t.Fatalf("expected interval round(40*2.2)=88, got %d", rec.IntervalDays)
	}
	if rec.Status != db.StatusMastered {
		t.Fatalf("expected to stay MASTERED, got %v", rec.Status)
	}
}

func TestApplyQualityRoundsHalfUp(t *testing.T) {
	// 5 * 1.3 = 6.5 rounds away from zero to 7.
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusReview, IntervalDays: 5, EaseFactor: 1.3,
	}

	ApplyQuality(rec, QualityKnew, testNow)

	if rec.IntervalDays != 7 {
		t.Fatalf("expected 6.5 to round up to 7, got %d", rec.IntervalDays)
	}
}

func TestApplyQualityForgot(t *testing.T) {
	cases := []db.ProgressRecord{
		{Status: db.StatusNew, EaseFactor: 2.5},
		{Status: db.StatusLearning, IntervalDays: 2, EaseFactor: 2.5, Streak: 2},
		{Status: db.StatusReview, IntervalDays: 10, EaseFactor: 2.0, Streak: 5, MistakeCount: 1},
		{Status: db.StatusMastered, IntervalDays: 40, EaseFactor: 1.4, Streak: 9},
	}

	for _, initial := range cases {
		rec := initial
		rec.UserID = 1
		rec.VocabularyID = 10

		ApplyQuality(&rec, QualityForgot, testNow)

		if rec.Status != db.StatusLearning {
			t.Errorf("from %v: expected demotion to LEARNING, got %v", initial.Status, rec.Status)
		}
		if rec.IntervalDays != 1 {
			t.Errorf("from %v: expected interval reset to 1, got %d", initial.Status, rec.IntervalDays)
		}
		if rec.Streak != 0 {
			t.Errorf("from %v: expected streak reset, got %d", initial.Status, rec.Streak)
		}
		if rec.MistakeCount != initial.MistakeCount+1 {
			t.Errorf("from %v: expected mistake count %d, got %d", initial.Status, initial.MistakeCount+1, rec.MistakeCount)
		}
		want := initial.EaseFactor - EasePenalty
		if want < EaseFloor {
			want = EaseFloor
		}
		if rec.EaseFactor != want {
			t.Errorf("from %v: expected ease %v, got %v", initial.Status, want, rec.EaseFactor)
		}
	}
}

func TestApplyQualityEaseStaysClamped(t *testing.T) {
	rec := &db.ProgressRecord{
		UserID: 1, VocabularyID: 10,
		Status: db.StatusReview, IntervalDays: 3, EaseFactor: 2.5,
	}

	ApplyQuality(rec, QualityKnew, testNow)
	if rec.EaseFactor != EaseCeiling {
		t.Fatalf("expected ease capped at %v, got %v", EaseCeiling, rec.EaseFactor)
	}

	for i := 0; i < 10; i++ {
		ApplyQuality(rec, QualityForgot, testNow)
	}
	if rec.EaseFactor != EaseFloor {
		t.Fatalf("expected ease floored at %v, got %v", EaseFloor, rec.EaseFactor)
	}
}

func TestGradeCreatesRecordOnFirstReview(t *testing.T) {
	store := newFakeStore()
	store.addVocabulary(db.Vocabulary{ID: 10, CourseID: 1, UnitID: 1, Word: "사과", Meaning: "apple"})
	grader := NewGrader(store)

	rec, err := grader.Grade(1, 10, QualityKnew, testNow)
	if err != nil {
		t.Fatalf("Grade returned error: %v", err)
	}
	if rec.Status != db.StatusLearning || rec.IntervalDays != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}

	stored, err := store.GetProgress(1, 10)
	if err != nil {
		t.Fatalf("GetProgress returned error: %v", err)
	}
	if stored == nil || stored.Status != db.StatusLearning {
		t.Fatalf("expected persisted record, got %+v", stored)
	}
}

func TestGradeValidation(t *testing.T) {
	store := newFakeStore()
	store.addVocabulary(db.Vocabulary{ID: 10, CourseID: 1, UnitID: 1, Word: "사과", Meaning: "apple"})
	grader := NewGrader(store)

	if _, err := grader.Grade(0, 10, QualityKnew, testNow); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := grader.Grade(1, 0, QualityKnew, testNow); !errors.Is(err, ErrInvalidVocabulary) {
		t.Errorf("expected ErrInvalidVocabulary, got %v", err)
	}
	if _, err := grader.Grade(1, 10, 3, testNow); !errors.Is(err, ErrInvalidQuality) {
		t.Errorf("expected ErrInvalidQuality, got %v", err)
	}
	if _, err := grader.Grade(1, 99, QualityKnew, testNow); !errors.Is(err, ErrVocabularyNotFound) {
		t.Errorf("expected ErrVocabularyNotFound, got %v", err)
	}

	if len(store.progress) != 0 {
		t.Fatalf("expected no records persisted after failures, got %d", len(store.progress))
	}
}

func TestGradeStoreFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.addVocabulary(db.Vocabulary{ID: 10, CourseID: 1, UnitID: 1, Word: "사과", Meaning: "apple"})
	store.failWith = errors.New("connection reset")
	grader := NewGrader(store)

	if _, err := grader.Grade(1, 10, QualityKnew, testNow); err == nil {
		t.Fatal("expected store error to propagate")
	}
}
