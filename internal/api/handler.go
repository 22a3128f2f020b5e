// Package api serves the public and user-facing HTTP endpoints.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"techpulse/internal/auth"
	"techpulse/internal/content"
	"techpulse/internal/db"
	"techpulse/internal/keymanager"
	"techpulse/internal/model"
	"techpulse/internal/publisher"

	"github.com/gin-gonic/gin"
)

const version = "1.1.0"

// ContentGenerator produces and persists generated content.
type ContentGenerator interface {
	Generate(ctx context.Context, req content.Request) (*model.GeneratedContent, error)
}

// Publisher dispatches content to platforms.
type Publisher interface {
	Publish(ctx context.Context, content *model.GeneratedContent, platforms []string) map[string]publisher.Result
}

type Handler struct {
	db        db.Service
	generator ContentGenerator
	publisher Publisher
	tokens    *auth.TokenManager
	logger    *slog.Logger
}

func NewHandler(dbService db.Service, generator ContentGenerator, pub Publisher, tokens *auth.TokenManager, logger *slog.Logger) *Handler {
	return &Handler{
		db:        dbService,
		generator: generator,
		publisher: pub,
		tokens:    tokens,
		logger:    logger.With("component", "api"),
	}
}

func (h *Handler) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "TechPulse API is running",
		"version": version,
		"features": []string{
			"Admin Authentication", "API Key Management", "RSS Aggregation",
			"AI Content Generation", "Multi-language Support", "SEO Optimization", "Auto Publishing",
		},
	})
}

func (h *Handler) HealthHandler(c *gin.Context) {
	status, database, code := "healthy", "connected", http.StatusOK
	sqlDB, err := h.db.GetDB().DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.logger.Warn("Health check database ping failed", "error", err)
		status, database, code = "unhealthy", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   version,
		"database":  database,
		"features":  []string{"admin_auth", "api_failover", "multi_user"},
	})
}

func (h *Handler) ListFeedsHandler(c *gin.Context) {
	feeds, err := h.db.ListFeeds(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feeds"})
		return
	}
	c.JSON(http.StatusOK, feeds)
}

func (h *Handler) ListArticlesHandler(c *gin.Context) {
	articles, err := h.db.ListArticles(c.Request.Context(), c.Query("category"), queryLimit(c, 50, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list articles"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

func (h *Handler) GenerateHandler(c *gin.Context) {
	var req content.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	generated, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrNoArticles):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, keymanager.ErrNoCredentials):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No API keys available for content generation"})
		default:
			h.logger.Error("Content generation failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Content generation failed"})
		}
		return
	}
	c.JSON(http.StatusOK, generated)
}

func (h *Handler) ListContentHandler(c *gin.Context) {
	contents, err := h.db.ListContent(c.Request.Context(), c.Query("language"), queryLimit(c, 20, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list content"})
		return
	}
	c.JSON(http.StatusOK, contents)
}

func (h *Handler) GetContentHandler(c *gin.Context) {
	generated, err := h.db.GetContent(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
		return
	}
	c.JSON(http.StatusOK, generated)
}

type PublishRequest struct {
	ContentID string   `json:"content_id" binding:"required"`
	Platforms []string `json:"platforms" binding:"required,min=1"`
}

func (h *Handler) PublishHandler(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	generated, err := h.db.GetContent(ctx, req.ContentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load content"})
		return
	}

	results := h.publisher.Publish(ctx, generated, req.Platforms)
	if err := h.db.MarkContentPublished(ctx, generated.ID); err != nil {
		h.logger.Error("Failed to mark content published", "content_id", generated.ID, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"content_id": generated.ID, "results": results})
}

func (h *Handler) SearchHandler(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	kind := c.DefaultQuery("type", "all")
	if kind != "all" && kind != "articles" && kind != "content" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of all, articles, content"})
		return
	}
	limit := queryLimit(c, 10, 100)
	ctx := c.Request.Context()

	articles := []model.Article{}
	contents := []model.GeneratedContent{}
	var err error
	if kind != "content" {
		if articles, err = h.db.SearchArticles(ctx, q, limit); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
			return
		}
	}
	if kind != "articles" {
		if contents, err = h.db.SearchContent(ctx, q, limit); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles, "generated_content": contents})
}

func (h *Handler) AnalyticsHandler(c *gin.Context) {
	analytics, err := h.db.Analytics(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build analytics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// queryLimit reads ?limit=, falling back to def and capping at max.
func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
