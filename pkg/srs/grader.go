// Package srs holds the spaced-repetition scheduler: the review grader
// state machine and the three-tier session selector. It talks to storage
// only through narrow interfaces so the logic tests against an in-memory
// fake.
package srs

import (
	"errors"
	"math"
	"time"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

// Quality is a binary signal: the learner either forgot the word or knew
// it. The values keep the classical SM-2 endpoints.
const (
	QualityForgot = 0
	QualityKnew   = 5
)

const (
	EaseFloor   = 1.3
	EaseCeiling = 2.5
	EaseBonus   = 0.1
	EasePenalty = 0.2

	// A learning item graduates to review once its interval reaches this
	// many days, and a review item is considered mastered once its interval
	// exceeds MasteryIntervalDays.
	GraduationIntervalDays = 3
	MasteryIntervalDays    = 30
)

var (
	ErrInvalidQuality     = errors.New("quality must be 0 or 5")
	ErrInvalidUser        = errors.New("user id is required")
	ErrInvalidVocabulary  = errors.New("vocabulary id is required")
	ErrVocabularyNotFound = errors.New("vocabulary not found")
)

// GraderStore is the write-side store surface of the grader.
type GraderStore interface {
	GetVocabulary(id uint) (*db.Vocabulary, error)
	GetProgress(userID int64, vocabularyID uint) (*db.ProgressRecord, error)
	UpsertProgress(rec *db.ProgressRecord) error
}

type Grader struct {
	store GraderStore
}

func NewGrader(store GraderStore) *Grader {
	return &Grader{store: store}
}

// Grade validates one review outcome, computes the next progress record and
// persists it. No state is written when validation fails.
func (g *Grader) Grade(userID int64, vocabularyID uint, quality int, now time.Time) (*db.ProgressRecord, error) {
	if userID == 0 {
		return nil, ErrInvalidUser
	}
	if vocabularyID == 0 {
		return nil, ErrInvalidVocabulary
	}
	if quality != QualityForgot && quality != QualityKnew {
		return nil, ErrInvalidQuality
	}

	if _, err := g.store.GetVocabulary(vocabularyID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrVocabularyNotFound
		}
		return nil, err
	}

	rec, err := g.store.GetProgress(userID, vocabularyID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = NewRecord(userID, vocabularyID)
	}

	ApplyQuality(rec, quality, now)

	if err := g.store.UpsertProgress(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// NewRecord is the virtual state of a never-graded pair.
func NewRecord(userID int64, vocabularyID uint) *db.ProgressRecord {
	return &db.ProgressRecord{
		UserID:       userID,
		VocabularyID: vocabularyID,
		Status:       db.StatusNew,
		IntervalDays: 0,
		EaseFactor:   EaseCeiling,
	}
}

// ApplyQuality mutates rec with the SM-2-style update. quality must already
// be validated. The interval growth rounds half away from zero (round-half-up
// for the positive operands here), following the classical SM-2 reference.
func ApplyQuality(rec *db.ProgressRecord, quality int, now time.Time) {
	now = now.UTC()

	if quality == QualityForgot {
		rec.Status = db.StatusLearning
		rec.IntervalDays = 1
		rec.EaseFactor = clampEase(rec.EaseFactor - EasePenalty)
		rec.Streak = 0
		rec.MistakeCount++
		touch(rec, now)
		return
	}

	switch rec.Status {
	case db.StatusNew:
		rec.Status = db.StatusLearning
		rec.IntervalDays = 1
		rec.Streak = 1
	case db.StatusLearning:
		rec.IntervalDays++
		rec.Streak++
		if rec.IntervalDays >= GraduationIntervalDays {
			rec.Status = db.StatusReview
		}
	default: // review or mastered
		grown := int(math.Round(float64(rec.IntervalDays) * rec.EaseFactor))
		if grown < 1 {
			grown = 1
		}
		rec.IntervalDays = grown
		rec.Streak++
		rec.EaseFactor = clampEase(rec.EaseFactor + EaseBonus)
		if rec.IntervalDays > MasteryIntervalDays {
			rec.Status = db.StatusMastered
		} else {
			rec.Status = db.StatusReview
		}
	}

	touch(rec, now)
}

func touch(rec *db.ProgressRecord, now time.Time) {
	next := now.AddDate(0, 0, rec.IntervalDays)
	rec.NextReviewAt = &next
	rec.LastReviewedAt = &now
}

func clampEase(ease float64) float64 {
	if ease < EaseFloor {
		return EaseFloor
	}
	if ease > EaseCeiling {
		return EaseCeiling
	}
	return ease
}
