package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
	"github.com/hanbit-edu/hanbit-server/pkg/importexport"
	"github.com/hanbit-edu/hanbit-server/pkg/logger"
	"github.com/hanbit-edu/hanbit-server/pkg/srs"
)

// Handler serves the two scheduler endpoints plus the progress summary.
// now is injectable so handler tests run on a fixed clock.
type Handler struct {
	repo     *db.ProgressRepo
	selector *srs.Selector
	grader   *srs.Grader
	now      func() time.Time
}

func NewHandler(repo *db.ProgressRepo) *Handler {
	return &Handler{
		repo:     repo,
		selector: srs.NewSelector(repo),
		grader:   srs.NewGrader(repo),
		now:      time.Now,
	}
}

// GetSession handles GET /api/v1/session.
func (h *Handler) GetSession(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	courseID, err := parseUintQuery(c, "courseId")
	if err != nil || courseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId is required"})
		return
	}
	unitID := srs.AllUnits
	if raw := c.Query("unitId"); raw != "" {
		unitID, err = parseUintQuery(c, "unitId")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unitId must be a number"})
			return
		}
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
	}

	session, err := h.selector.BuildSession(userID, courseID, unitID, limit, h.now().UTC())
	if err != nil {
		logger.Error("failed to build session", "user_id", userID, "course_id", courseID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

type reviewRequest struct {
	UserID       int64 `json:"userId"`
	VocabularyID uint  `json:"vocabularyId"`
	Quality      *int  `json:"quality"`
}

// SubmitReview handles POST /api/v1/review. On success it appends a review
// activity row; a logging failure is reported but does not fail the review.
func (h *Handler) SubmitReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Quality == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quality is required"})
		return
	}

	now := h.now().UTC()
	rec, err := h.grader.Grade(req.UserID, req.VocabularyID, *req.Quality, now)
	if err != nil {
		switch {
		case errors.Is(err, srs.ErrInvalidUser),
			errors.Is(err, srs.ErrInvalidVocabulary),
			errors.Is(err, srs.ErrInvalidQuality):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, srs.ErrVocabularyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("failed to grade review", "user_id", req.UserID, "vocabulary_id", req.VocabularyID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save review"})
		}
		return
	}

	if err := h.repo.CreateReviewLog(&db.ReviewLog{
		UserID:       rec.UserID,
		VocabularyID: rec.VocabularyID,
		Quality:      *req.Quality,
		Status:       rec.Status,
		IntervalDays: rec.IntervalDays,
		ReviewedAt:   now,
	}); err != nil {
		logger.Error("failed to write review log", "user_id", rec.UserID, "vocabulary_id", rec.VocabularyID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"progress": rec})
}

// GetProgressSummary handles GET /api/v1/progress/summary.
func (h *Handler) GetProgressSummary(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	courseID, err := parseUintQuery(c, "courseId")
	if err != nil || courseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId is required"})
		return
	}

	counts, err := h.repo.StatusCounts(userID, courseID)
	if err != nil {
		logger.Error("failed to load status counts", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load summary"})
		return
	}
	dueNow, err := h.repo.CountDue(userID, courseID, h.now().UTC())
	if err != nil {
		logger.Error("failed to count due reviews", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"learning": counts[db.StatusLearning],
		"review":   counts[db.StatusReview],
		"mastered": counts[db.StatusMastered],
		"dueNow":   dueNow,
	})
}

// ExportProgress handles GET /api/v1/progress/export and streams the
// user's progress for a course as a CSV download.
func (h *Handler) ExportProgress(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	courseID, err := parseUintQuery(c, "courseId")
	if err != nil || courseID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId is required"})
		return
	}

	records, err := h.repo.ListProgress(userID, courseID)
	if err != nil {
		logger.Error("failed to load progress for export", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export progress"})
		return
	}

	importexport.SortRecordsForExport(records)
	data, err := importexport.BuildProgressCSV(records)
	if err != nil {
		logger.Error("failed to build progress CSV", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export progress"})
		return
	}

	filename := importexport.ExportFilename(h.now().UTC())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func parseUintQuery(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
