package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/hanbit-edu/hanbit-server/pkg/db"
)

// NewRouter wires the scheduler endpoints. The UI origin is the only one
// allowed by CORS.
func NewRouter(repo *db.ProgressRepo, corsAllowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsAllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler := NewHandler(repo)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/session", handler.GetSession)
		v1.POST("/review", handler.SubmitReview)
		v1.GET("/progress/summary", handler.GetProgressSummary)
		v1.GET("/progress/export", handler.ExportProgress)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
