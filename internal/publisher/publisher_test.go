package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"techpulse/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingAdapter struct{}

func (failingAdapter) Platform() string { return "medium" }
func (failingAdapter) Publish(context.Context, *model.GeneratedContent) (Result, error) {
	return Result{}, errors.New("upstream 502")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultRegistry_Publish(t *testing.T) {
	r := NewDefaultRegistry(testLogger())
	assert.Equal(t, []string{"facebook", "linkedin", "twitter", "wordpress"}, r.Platforms())

	content := &model.GeneratedContent{ID: "c1", Title: "T"}
	results := r.Publish(context.Background(), content, []string{"facebook", "twitter", "linkedin", "wordpress", "myspace", "facebook"})
	require.Len(t, results, 5)

	prefixes := map[string]string{"facebook": "fb_", "twitter": "tw_", "linkedin": "li_", "wordpress": "wp_"}
	for platform, prefix := range prefixes {
		res := results[platform]
		assert.Equal(t, StatusSuccess, res.Status, platform)
		assert.Regexp(t, regexp.MustCompile("^"+prefix+"[0-9a-f]{8}$"), res.PostID)
	}

	assert.Equal(t, Result{Status: StatusError, Message: "Platform myspace not supported"}, results["myspace"])
}

func TestRegistry_AdapterError(t *testing.T) {
	r := NewRegistry(testLogger(), failingAdapter{})
	results := r.Publish(context.Background(), &model.GeneratedContent{ID: "c1"}, []string{"medium"})
	assert.Equal(t, StatusError, results["medium"].Status)
	assert.Equal(t, "upstream 502", results["medium"].Message)
}

func TestMockAdapter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := MockAdapter{Name: "x", Prefix: "x_"}.Publish(ctx, &model.GeneratedContent{})
	assert.ErrorIs(t, err, context.Canceled)
}
