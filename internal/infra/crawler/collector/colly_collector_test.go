package collector

import (
	"context"
	"net/http"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<html><body><div class="jIjQ8S"><div class="RG5Slk">Mouse X</div></div></body></html>`

func newMockLauncher(t *testing.T, opts ...Option) (*httpmock.MockTransport, *observability.Metrics, *collyLauncher) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	metrics := observability.NewMetrics()
	opts = append([]Option{WithTransport(mt)}, opts...)
	l := InitCollyLauncher(config.BrowserConfig{UserAgent: "test-agent"}, nil, metrics, opts...)
	return mt, metrics, l.(*collyLauncher)
}

func TestCollySessionFetchesHTML(t *testing.T) {
	mt, metrics, l := newMockLauncher(t, WithHeaders(map[string]string{"Accept-Language": "en-IN"}))

	var gotUA, gotLang string
	mt.RegisterResponder(http.MethodGet, "https://www.flipkart.com/search?q=wireless+mouse",
		func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			gotLang = req.Header.Get("Accept-Language")
			return httpmock.NewStringResponse(http.StatusOK, listingHTML), nil
		})

	ctx := context.Background()
	sess, err := l.Acquire(ctx, true)
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Navigate(ctx, "https://www.flipkart.com/search?q=wireless+mouse"))
	html, err := sess.HTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, listingHTML, html)
	assert.Equal(t, "test-agent", gotUA)
	assert.Equal(t, "en-IN", gotLang)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsTotal.WithLabelValues(config.DriverStatic, "headless")))
}

func TestCollySessionNavigateError(t *testing.T) {
	mt, _, l := newMockLauncher(t)
	mt.RegisterResponder(http.MethodGet, "https://www.flipkart.com/p/missing",
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	ctx := context.Background()
	sess, err := l.Acquire(ctx, true)
	require.NoError(t, err)
	defer sess.Close()

	err = sess.Navigate(ctx, "https://www.flipkart.com/p/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "访问URL失败")

	_, err = sess.HTML(ctx)
	assert.ErrorIs(t, err, errNoPage)
}

func TestCollySessionIsNotInteractive(t *testing.T) {
	_, _, l := newMockLauncher(t)
	ctx := context.Background()
	sess, err := l.Acquire(ctx, false)
	require.NoError(t, err)

	clicked, err := sess.ClickFirst(ctx, []types.Matcher{{Selector: "button", Text: "✕"}})
	require.NoError(t, err)
	assert.False(t, clicked)
	assert.NoError(t, sess.PressEnd(ctx))
	assert.NoError(t, sess.Close())
	assert.NoError(t, sess.Close())
}

func TestCollyAcquireCanceled(t *testing.T) {
	_, _, l := newMockLauncher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Acquire(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
}
