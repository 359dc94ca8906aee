package db

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Status is the memory-strength state of a (user, vocabulary) pair.
type Status int

const (
	StatusNew Status = iota
	StatusLearning
	StatusReview
	StatusMastered
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusLearning:
		return "LEARNING"
	case StatusReview:
		return "REVIEW"
	case StatusMastered:
		return "MASTERED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func ParseStatus(value string) (Status, error) {
	switch value {
	case "NEW":
		return StatusNew, nil
	case "LEARNING":
		return StatusLearning, nil
	case "REVIEW":
		return StatusReview, nil
	case "MASTERED":
		return StatusMastered, nil
	default:
		return StatusNew, fmt.Errorf("invalid status %q", value)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	parsed, err := ParseStatus(value)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Vocabulary is a catalog entry. Rows are created by the import tooling and
// are read-only to the scheduler.
type Vocabulary struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CourseID      uint           `gorm:"not null;uniqueIndex:idx_course_unit_word" json:"courseId"`
	UnitID        uint           `gorm:"not null;uniqueIndex:idx_course_unit_word" json:"unitId"`
	Word          string         `gorm:"not null;uniqueIndex:idx_course_unit_word" json:"word"`
	Meaning       string         `gorm:"not null" json:"meaning"`
	Pronunciation string         `json:"pronunciation,omitempty"`
	Hanja         string         `json:"hanja,omitempty"`
	PartOfSpeech  string         `json:"partOfSpeech,omitempty"`
	AudioURL      string         `json:"audioUrl,omitempty"`
	Examples      datatypes.JSON `json:"examples,omitempty"`
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
}

// ProgressRecord tracks one user's memory strength for one vocabulary item.
// A row exists only after the first graded review; before that the pair is
// simply absent and treated as new.
type ProgressRecord struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	UserID         int64      `gorm:"not null;uniqueIndex:idx_user_vocab" json:"userId"`
	VocabularyID   uint       `gorm:"not null;uniqueIndex:idx_user_vocab" json:"vocabularyId"`
	Status         Status     `gorm:"not null;default:0" json:"status"`
	IntervalDays   int        `gorm:"not null;default:0" json:"interval"`
	EaseFactor     float64    `gorm:"not null;default:2.5" json:"easeFactor"`
	Streak         int        `gorm:"not null;default:0" json:"streak"`
	MistakeCount   int        `gorm:"not null;default:0" json:"mistakeCount"`
	NextReviewAt   *time.Time `gorm:"index" json:"nextReviewAt"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
	CreatedAt      time.Time  `json:"-"`
	UpdatedAt      time.Time  `json:"-"`

	Vocabulary Vocabulary `gorm:"foreignKey:VocabularyID" json:"-"`
}

// ReviewLog is an append-only activity row per grading event, written by the
// API layer. The grader itself never touches it.
type ReviewLog struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	UserID       int64     `gorm:"index" json:"userId"`
	VocabularyID uint      `gorm:"not null" json:"vocabularyId"`
	Quality      int       `gorm:"not null" json:"quality"`
	Status       Status    `gorm:"not null" json:"status"`
	IntervalDays int       `gorm:"not null" json:"interval"`
	ReviewedAt   time.Time `gorm:"not null;index" json:"reviewedAt"`
}
