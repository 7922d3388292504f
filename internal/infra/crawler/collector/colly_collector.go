package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

var errNoPage = errors.New("页面尚未加载")

type collyLauncher struct {
	userAgent  string
	navTimeout time.Duration
	transport  http.RoundTripper
	headers    map[string]string
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func InitCollyLauncher(cfg config.BrowserConfig, logger *zap.Logger, metrics *observability.Metrics, opts ...Option) chrome.Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := &collyLauncher{
		userAgent:  cfg.UserAgent,
		navTimeout: cfg.NavigationTimeout,
		logger:     logger.Named("colly"),
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Acquire 每个会话一个独立的 Collector 和 cookie jar
func (cl *collyLauncher) Acquire(ctx context.Context, headless bool) (chrome.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var opts []colly.CollectorOption
	opts = append(opts, colly.AllowURLRevisit())
	if cl.userAgent != "" {
		opts = append(opts, colly.UserAgent(cl.userAgent))
	}
	c := colly.NewCollector(opts...)
	if cl.transport != nil {
		c.WithTransport(cl.transport)
	}
	if cl.navTimeout > 0 {
		c.SetRequestTimeout(cl.navTimeout)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, chrome.LaunchError{Err: fmt.Errorf("创建cookie jar失败: %w", err)}
	}
	c.SetCookieJar(jar)

	s := &collySession{collector: c}
	c.OnRequest(func(r *colly.Request) {
		for k, v := range cl.headers {
			r.Headers.Set(k, v)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		s.body = string(r.Body)
		s.loaded = true
	})

	cl.metrics.IncSession(config.DriverStatic, headless)
	cl.logger.Debug("静态会话已创建")
	return s, nil
}

// collySession 一个会话只在单个 goroutine 中使用
type collySession struct {
	collector *colly.Collector
	body      string
	loaded    bool

	closeOnce sync.Once
}

func (cs *collySession) Navigate(ctx context.Context, url string) error {
	cs.body, cs.loaded = "", false
	cs.collector.Context = ctx
	if err := cs.collector.Visit(url); err != nil {
		return fmt.Errorf("访问URL失败: %w", err)
	}
	if !cs.loaded {
		return fmt.Errorf("访问URL失败: %s 没有响应内容", url)
	}
	return nil
}

// ClickFirst 静态页面无法交互,总是未命中
func (cs *collySession) ClickFirst(ctx context.Context, _ []types.Matcher) (bool, error) {
	return false, ctx.Err()
}

func (cs *collySession) PressEnd(ctx context.Context) error {
	return ctx.Err()
}

func (cs *collySession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !cs.loaded {
		return "", errNoPage
	}
	return cs.body, nil
}

func (cs *collySession) Close() error {
	cs.closeOnce.Do(func() {
		cs.body, cs.loaded = "", false
	})
	return nil
}
