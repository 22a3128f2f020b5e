// Package publisher dispatches generated content to social and CMS platforms.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"techpulse/internal/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the per-platform outcome of a publish request.
type Result struct {
	Status  string `json:"status"`
	PostID  string `json:"post_id,omitempty"`
	Message string `json:"message"`
}

// Adapter publishes to one platform.
type Adapter interface {
	Platform() string
	Publish(ctx context.Context, content *model.GeneratedContent) (Result, error)
}

// Registry holds the adapters keyed by platform name.
type Registry struct {
	adapters map[string]Adapter
	logger   *slog.Logger
}

func NewRegistry(logger *slog.Logger, adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters)), logger: logger.With("component", "publisher")}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

// NewDefaultRegistry registers the built-in mock adapters.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	return NewRegistry(logger,
		MockAdapter{Name: "facebook", Prefix: "fb_", Label: "Facebook"},
		MockAdapter{Name: "twitter", Prefix: "tw_", Label: "Twitter"},
		MockAdapter{Name: "linkedin", Prefix: "li_", Label: "LinkedIn"},
		MockAdapter{Name: "wordpress", Prefix: "wp_", Label: "WordPress"},
	)
}

// Platforms lists the registered platform names in order.
func (r *Registry) Platforms() []string {
	names := lo.Keys(r.adapters)
	sort.Strings(names)
	return names
}

// Publish sends content to each distinct platform. Unknown platforms and adapter
// failures are reported per platform, never as a request error.
func (r *Registry) Publish(ctx context.Context, content *model.GeneratedContent, platforms []string) map[string]Result {
	results := make(map[string]Result, len(platforms))
	for _, platform := range lo.Uniq(platforms) {
		adapter, ok := r.adapters[strings.ToLower(platform)]
		if !ok {
			results[platform] = Result{Status: StatusError, Message: fmt.Sprintf("Platform %s not supported", platform)}
			continue
		}
		res, err := adapter.Publish(ctx, content)
		if err != nil {
			r.logger.Warn("Publish failed", "platform", platform, "content_id", content.ID, "error", err)
			results[platform] = Result{Status: StatusError, Message: err.Error()}
			continue
		}
		r.logger.Info("Content published", "platform", platform, "content_id", content.ID, "post_id", res.PostID)
		results[platform] = res
	}
	return results
}

// MockAdapter simulates a platform by minting a post id.
type MockAdapter struct {
	Name   string
	Prefix string
	Label  string
}

func (m MockAdapter) Platform() string { return m.Name }

func (m MockAdapter) Publish(ctx context.Context, content *model.GeneratedContent) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return Result{
		Status:  StatusSuccess,
		PostID:  m.Prefix + id,
		Message: fmt.Sprintf("Published to %s successfully", m.Label),
	}, nil
}
