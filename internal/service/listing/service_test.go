package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome/chrometest"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/LouYuanbo1/productreviews/internal/service/review"
	"github.com/LouYuanbo1/productreviews/internal/service/stabilize"
	"github.com/LouYuanbo1/productreviews/param"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	title, price, rating, reviews, link string
}

func (it item) html() string {
	var b strings.Builder
	b.WriteString(`<div data-id="x">`)
	if it.title != "" {
		fmt.Fprintf(&b, `<div class="RG5Slk">%s</div>`, it.title)
	}
	if it.price != "" {
		fmt.Fprintf(&b, `<div class="hZ3P6w DeU9vF">%s</div>`, it.price)
	}
	if it.rating != "" {
		fmt.Fprintf(&b, `<div class="MKiFS6">%s</div>`, it.rating)
	}
	if it.reviews != "" {
		fmt.Fprintf(&b, `<span class="o2SIOJ">%s</span>`, it.reviews)
	}
	if it.link != "" {
		fmt.Fprintf(&b, `<a href="%s">view</a>`, it.link)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func listingPage(items ...item) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, it := range items {
		b.WriteString(it.html())
	}
	b.WriteString("</body></html>")
	return b.String()
}

func productItem(n int) item {
	return item{
		title:   fmt.Sprintf("Mouse %d", n),
		price:   fmt.Sprintf("₹%d", 100+n),
		rating:  "4.1",
		reviews: fmt.Sprintf("%d Reviews", n),
		link:    fmt.Sprintf("/mouse-%d/p/id%d?pid=%d", n, n, n),
	}
}

// stubReviews 记录调用并返回固定文本
type stubReviews struct {
	mu     sync.Mutex
	calls  []string
	err    error
	failOn string
}

func (s *stubReviews) Extract(_ context.Context, productURL string, count int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, productURL)
	if s.err != nil && (s.failOn == "" || strings.Contains(productURL, s.failOn)) {
		return "", s.err
	}
	if !model.IsAbsoluteURL(productURL) {
		return model.NoReviewsFound, nil
	}
	return fmt.Sprintf("reviews of %s (%d)", productURL, count), nil
}

func newService(fl chrome.Launcher, reviews ReviewExtractor, opts Options, metrics *observability.Metrics) Service {
	st := stabilize.InitStabilizer(stabilize.Settle{}, nil)
	return InitService(fl, st, reviews, param.Flipkart(), opts, nil, metrics)
}

func searchURL(query string) string {
	return param.Flipkart().SearchURL(query)
}

func TestExtractWirelessMouseScenario(t *testing.T) {
	review30 := "Smooth clicks and long battery"
	require.Len(t, review30, 30)

	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("wireless mouse"): listingPage(item{
			title:   "Mouse X",
			price:   "$10",
			rating:  "4.2",
			reviews: "1,234 Reviews",
			link:    "/p/abc123?x=1",
		}),
		"https://www.flipkart.com/p/abc123?x=1": `<html><body><div class="G4PxIA">` + review30 + `</div></body></html>`,
	}}
	st := stabilize.InitStabilizer(stabilize.Settle{}, nil)
	reviews, err := review.InitService(fl, st, param.Flipkart(), review.Options{Headless: true, Scrolls: 3}, nil, nil)
	require.NoError(t, err)
	svc := InitService(fl, st, reviews, param.Flipkart(), Options{Headless: false, Workers: 1}, nil, nil)

	result, err := svc.Extract(context.Background(), "wireless mouse", 1, 1)
	require.NoError(t, err)

	want := []model.ProductRecord{{
		ProductID:    "abc123",
		Title:        "Mouse X",
		Rating:       "4.2",
		TotalReviews: 1234,
		Price:        "$10",
		ReviewSample: review30,
		URL:          "https://www.flipkart.com/p/abc123?x=1",
	}}
	if diff := cmp.Diff(want, result.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, result.Skipped())

	// 列表页可见,评论页无头
	assert.Equal(t, []bool{false, true}, fl.HeadlessModes())
	assert.Equal(t, 0, fl.Live())
}

func TestExtractSkipsItemMissingPrice(t *testing.T) {
	broken := productItem(2)
	broken.price = ""
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(productItem(1), broken, productItem(3)),
	}}
	metrics := observability.NewMetrics()
	svc := newService(fl, &stubReviews{}, Options{}, metrics)

	result, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.NoError(t, err)

	records := result.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "Mouse 1", records[0].Title)
	assert.Equal(t, "Mouse 3", records[1].Title)

	skipped := result.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, 1, skipped[0].Index)
	var fe FieldError
	require.ErrorAs(t, skipped[0].Reason, &fe)
	assert.Equal(t, "price", fe.Field)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ItemsTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ItemsTotal.WithLabelValues(OutcomeSkipped)))
}

func TestExtractSkipsItemMissingTitle(t *testing.T) {
	broken := productItem(1)
	broken.title = ""
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(broken),
	}}
	svc := newService(fl, &stubReviews{}, Options{}, nil)

	result, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.NoError(t, err)
	assert.Empty(t, result.Records())

	var fe FieldError
	require.ErrorAs(t, result.Skipped()[0].Reason, &fe)
	assert.Equal(t, "title", fe.Field)
}

func TestExtractRespectsMaxProductsAndOrder(t *testing.T) {
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(productItem(1), productItem(2), productItem(3), productItem(4)),
	}}
	stub := &stubReviews{}
	svc := newService(fl, stub, Options{}, nil)

	result, err := svc.Extract(context.Background(), "mouse", 2, 1)
	require.NoError(t, err)

	records := result.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "id1", records[0].ProductID)
	assert.Equal(t, "id2", records[1].ProductID)
	assert.Equal(t, 1, records[0].TotalReviews)
	assert.Equal(t, "https://www.flipkart.com/mouse-1/p/id1?pid=1", records[0].URL)
	assert.Equal(t, []string{records[0].URL, records[1].URL}, stub.calls)
}

func TestExtractOptionalFields(t *testing.T) {
	it := productItem(1)
	it.rating = ""
	it.reviews = ""
	it.link = ""
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(it),
	}}
	svc := newService(fl, &stubReviews{}, Options{}, nil)

	result, err := svc.Extract(context.Background(), "mouse", 1, 2)
	require.NoError(t, err)

	records := result.Records()
	require.Len(t, records, 1)
	assert.Equal(t, model.NotAvailable, records[0].ProductID)
	assert.Empty(t, records[0].Rating)
	assert.Zero(t, records[0].TotalReviews)
	assert.Equal(t, model.NoReviewsFound, records[0].ReviewSample)
}

func TestExtractParallelKeepsOrder(t *testing.T) {
	items := make([]item, 6)
	for i := range items {
		items[i] = productItem(i + 1)
	}
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(items...),
	}}
	stub := &stubReviews{}
	svc := newService(fl, stub, Options{Workers: 3}, nil)

	result, err := svc.Extract(context.Background(), "mouse", 6, 2)
	require.NoError(t, err)

	records := result.Records()
	require.Len(t, records, 6)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("id%d", i+1), rec.ProductID)
		assert.Equal(t, fmt.Sprintf("reviews of %s (2)", rec.URL), rec.ReviewSample)
	}
	assert.Len(t, stub.calls, 6)
}

func TestExtractParallelBoundsSessions(t *testing.T) {
	pages := map[string]string{}
	items := make([]item, 8)
	for i := range items {
		items[i] = productItem(i + 1)
		pages["https://www.flipkart.com"+items[i].link] = `<html><body><div class="G4PxIA">A long enough review for product</div></body></html>`
	}
	pages[searchURL("mouse")] = listingPage(items...)
	fl := &chrometest.FakeLauncher{Pages: pages}

	st := stabilize.InitStabilizer(stabilize.Settle{}, nil)
	reviews, err := review.InitService(fl, st, param.Flipkart(), review.Options{Headless: true}, nil, nil)
	require.NoError(t, err)
	svc := InitService(fl, st, reviews, param.Flipkart(), Options{Workers: 2}, nil, nil)

	result, err := svc.Extract(context.Background(), "mouse", 8, 1)
	require.NoError(t, err)
	assert.Len(t, result.Records(), 8)

	// 列表页会话加最多2个评论会话
	assert.LessOrEqual(t, fl.MaxLive(), 3)
	assert.Equal(t, 9, fl.Acquired())
	assert.Equal(t, 0, fl.Live())
}

func TestExtractLaunchFailureIsFatal(t *testing.T) {
	fl := &chrometest.FakeLauncher{LaunchErr: errors.New("no chrome")}
	svc := newService(fl, &stubReviews{}, Options{}, nil)

	_, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.Error(t, err)
	assert.True(t, chrome.IsLaunchError(err))
}

func TestExtractReviewLaunchFailureIsFatal(t *testing.T) {
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(productItem(1), productItem(2)),
	}}
	stub := &stubReviews{err: chrome.LaunchError{Err: errors.New("no chrome")}, failOn: "id2"}
	svc := newService(fl, stub, Options{}, nil)

	_, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.Error(t, err)
	assert.True(t, chrome.IsLaunchError(err))
	assert.Equal(t, 0, fl.Live())
}

func TestExtractNavigationFailure(t *testing.T) {
	fl := &chrometest.FakeLauncher{
		Pages:   map[string]string{searchURL("mouse"): listingPage()},
		NavErrs: map[string]error{searchURL("mouse"): errors.New("net::ERR_NAME_NOT_RESOLVED")},
	}
	svc := newService(fl, &stubReviews{}, Options{}, nil)

	_, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.Error(t, err)
	assert.False(t, chrome.IsLaunchError(err))
	assert.Equal(t, 1, fl.Sessions()[0].CloseCalls)
}

func TestExtractEmptyPage(t *testing.T) {
	fl := &chrometest.FakeLauncher{Pages: map[string]string{
		searchURL("mouse"): listingPage(),
	}}
	stub := &stubReviews{}
	svc := newService(fl, stub, Options{}, nil)

	result, err := svc.Extract(context.Background(), "mouse", 5, 2)
	require.NoError(t, err)
	assert.Empty(t, result.Records())
	assert.Empty(t, stub.calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "鼠标...", truncate("鼠标无线", 2))
}
