package srs

import (
	"time"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

const (
	DefaultSessionLimit = 20
	MaxSessionLimit     = 100
)

// AllUnits selects the whole course instead of a single unit.
const AllUnits uint = 0

// SelectorStore is the read-side store surface of the session selector.
type SelectorStore interface {
	QueryDue(userID int64, courseID, unitID uint, now time.Time, limit int) ([]db.ProgressRecord, error)
	QueryLearning(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]db.ProgressRecord, error)
	QueryNew(userID int64, courseID, unitID uint, exclude []uint, limit int) ([]db.Vocabulary, error)
}

type SessionItem struct {
	Vocabulary db.Vocabulary      `json:"vocabulary"`
	Progress   *db.ProgressRecord `json:"progress"`
}

type SessionStats struct {
	Total      int `json:"total"`
	DueReviews int `json:"dueReviews"`
}

type Session struct {
	Items []SessionItem `json:"items"`
	Stats SessionStats  `json:"stats"`
}

type Selector struct {
	store SelectorStore
}

func NewSelector(store SelectorStore) *Selector {
	return &Selector{store: store}
}

// BuildSession fills a batch from three priority tiers: due reviews (most
// overdue first), then learning items, then never-studied vocabulary. Each
// tier excludes vocabulary already taken by a higher tier, so no item
// appears twice. The call is a pure read.
func (s *Selector) BuildSession(userID int64, courseID, unitID uint, limit int, now time.Time) (*Session, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	if limit > MaxSessionLimit {
		limit = MaxSessionLimit
	}

	session := &Session{Items: []SessionItem{}}

	due, err := s.store.QueryDue(userID, courseID, unitID, now, limit)
	if err != nil {
		return nil, err
	}
	selected := make([]uint, 0, limit)
	for i := range due {
		rec := due[i]
		session.Items = append(session.Items, SessionItem{Vocabulary: rec.Vocabulary, Progress: &rec})
		selected = append(selected, rec.VocabularyID)
	}
	session.Stats.DueReviews = len(due)

	if remaining := limit - len(session.Items); remaining > 0 {
		learning, err := s.store.QueryLearning(userID, courseID, unitID, selected, remaining)
		if err != nil {
			return nil, err
		}
		for i := range learning {
			rec := learning[i]
			session.Items = append(session.Items, SessionItem{Vocabulary: rec.Vocabulary, Progress: &rec})
			selected = append(selected, rec.VocabularyID)
		}
	}

	if remaining := limit - len(session.Items); remaining > 0 {
		fresh, err := s.store.QueryNew(userID, courseID, unitID, selected, remaining)
		if err != nil {
			return nil, err
		}
		for _, vocab := range fresh {
			session.Items = append(session.Items, SessionItem{Vocabulary: vocab, Progress: nil})
		}
	}

	session.Stats.Total = len(session.Items)
	return session, nil
}
