package admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"techpulse/internal/db"
	"techpulse/internal/feeds"
	"techpulse/internal/keymanager"
	"techpulse/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

const (
	defaultPriority   = 1
	defaultDailyQuota = 1000
	testResponseLimit = 100
)

// Collector starts a background article collection.
type Collector interface {
	CollectAsync() bool
}

type CreateCredentialRequest struct {
	Provider   string `json:"provider" binding:"required"`
	Model      string `json:"model" binding:"required"`
	Secret     string `json:"api_key" binding:"required"`
	Priority   *int   `json:"priority"`
	DailyQuota *int   `json:"max_requests_per_day"`
	IsActive   *bool  `json:"is_active"`
}

type UpdateCredentialRequest struct {
	Model      *string `json:"model"`
	Priority   *int    `json:"priority"`
	DailyQuota *int    `json:"max_requests_per_day"`
	IsActive   *bool   `json:"is_active"`
}

type CreateFeedRequest struct {
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url" binding:"required,url"`
	Category string `json:"category"`
	Language string `json:"language"`
	IsActive *bool  `json:"is_active"`
}

type Handler struct {
	db        db.Service
	keys      keymanager.Manager
	collector Collector
	logger    *slog.Logger
}

func NewHandler(dbService db.Service, keys keymanager.Manager, collector Collector, logger *slog.Logger) *Handler {
	return &Handler{db: dbService, keys: keys, collector: collector, logger: logger.With("component", "admin")}
}

func (h *Handler) CreateCredentialHandler(c *gin.Context) {
	var req CreateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if lo.FromPtrOr(req.DailyQuota, defaultDailyQuota) < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_requests_per_day cannot be negative"})
		return
	}

	cred := &model.Credential{
		Provider:   strings.ToLower(strings.TrimSpace(req.Provider)),
		Model:      strings.TrimSpace(req.Model),
		Secret:     strings.TrimSpace(req.Secret),
		Priority:   lo.FromPtrOr(req.Priority, defaultPriority),
		DailyQuota: lo.FromPtrOr(req.DailyQuota, defaultDailyQuota),
		IsActive:   lo.FromPtrOr(req.IsActive, true),
	}
	if err := h.db.CreateCredential(c.Request.Context(), cred); err != nil {
		h.logger.Error("Failed to create credential", "provider", cred.Provider, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create API key"})
		return
	}
	h.logger.Info("Credential created", "credential_id", cred.ID, "provider", cred.Provider)
	c.JSON(http.StatusCreated, cred.Masked())
}

func (h *Handler) ListCredentialsHandler(c *gin.Context) {
	creds, err := h.db.ListCredentials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list API keys"})
		return
	}
	c.JSON(http.StatusOK, lo.Map(creds, func(cred model.Credential, _ int) model.Credential { return cred.Masked() }))
}

func (h *Handler) UpdateCredentialHandler(c *gin.Context) {
	var req UpdateCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.DailyQuota != nil && *req.DailyQuota < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_requests_per_day cannot be negative"})
		return
	}

	updates := map[string]any{}
	if req.Model != nil {
		updates["model"] = strings.TrimSpace(*req.Model)
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DailyQuota != nil {
		updates["daily_quota"] = *req.DailyQuota
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	cred, err := h.db.UpdateCredential(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update API key"})
		return
	}
	c.JSON(http.StatusOK, cred.Masked())
}

func (h *Handler) DeleteCredentialHandler(c *gin.Context) {
	if err := h.db.DeleteCredential(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete API key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key deleted successfully"})
}

// TestCredentialHandler runs one probe generation. Provider failures are reported in the body.
func (h *Handler) TestCredentialHandler(c *gin.Context) {
	cred, err := h.db.GetCredential(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load API key"})
		return
	}

	text, err := h.keys.TestCredential(c.Request.Context(), cred)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if r := []rune(text); len(r) > testResponseLimit {
		text = string(r[:testResponseLimit]) + "..."
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "test_response": text})
}

func (h *Handler) ResetUsageHandler(c *gin.Context) {
	if err := h.keys.ResetDailyUsage(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset usage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Daily usage reset successfully"})
}

func (h *Handler) StatsHandler(c *gin.Context) {
	stats, err := h.db.AdminStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build admin stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CreateFeedHandler(c *gin.Context) {
	var req CreateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	feed := &model.Feed{
		Title:    strings.TrimSpace(req.Title),
		URL:      strings.TrimSpace(req.URL),
		Category: lo.Ternary(req.Category == "", "technology", req.Category),
		Language: lo.Ternary(req.Language == "", keymanager.DefaultLanguage, req.Language),
		IsActive: lo.FromPtrOr(req.IsActive, true),
	}
	if err := h.db.CreateFeed(c.Request.Context(), feed); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create feed"})
		return
	}
	c.JSON(http.StatusCreated, feed)
}

func (h *Handler) DeleteFeedHandler(c *gin.Context) {
	if err := h.db.DeleteFeed(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete feed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed deleted successfully"})
}

// InitializeFeedsHandler seeds the default catalogue into an empty feed table.
func (h *Handler) InitializeFeedsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	count, err := h.db.CountFeeds(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count feeds"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Feeds already initialized", "action": "skipped", "count": count})
		return
	}

	defaults := feeds.DefaultFeedModels()
	if err := h.db.BatchCreateFeeds(ctx, defaults); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize feeds"})
		return
	}
	h.logger.Info("Default feeds initialized", "count", len(defaults))
	c.JSON(http.StatusOK, gin.H{"message": "Default RSS feeds initialized", "action": "created", "count": len(defaults)})
}

// CollectArticlesHandler only starts the run; its outcome shows up in feed timestamps and new articles.
func (h *Handler) CollectArticlesHandler(c *gin.Context) {
	if !h.collector.CollectAsync() {
		c.JSON(http.StatusAccepted, gin.H{"message": "Article collection already in progress", "status": "running"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Article collection started in background", "status": "accepted"})
}
