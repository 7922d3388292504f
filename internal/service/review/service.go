package review

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/selector"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/LouYuanbo1/productreviews/internal/service/stabilize"
	"github.com/LouYuanbo1/productreviews/param"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Service 抓取单个商品详情页的评论
type Service interface {
	// Collect 返回去重后的评论,最多 count 条
	// 页面级别的失败降级为空结果,只有浏览器启动失败和 ctx 结束会返回错误
	Collect(ctx context.Context, productURL string, count int) ([]string, error)
	// Extract 与 Collect 相同,但把评论合并为一个字段,没有评论时返回占位文本
	Extract(ctx context.Context, productURL string, count int) (string, error)
}

type Options struct {
	Headless bool
	Scrolls  int
	// CacheSize 按 URL 缓存评论结果的条目数,0 表示不缓存
	CacheSize int
	// Rate 每秒最多启动的会话数,0 表示不限速
	Rate float64
}

type cacheKey struct {
	url   string
	count int
}

type service struct {
	launcher   chrome.Launcher
	stabilizer stabilize.Stabilizer
	site       param.SiteProfile
	opts       Options
	normalizer *model.ReviewNormalizer
	cache      *lru.Cache[cacheKey, []string]
	limiter    *rate.Limiter
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func InitService(
	launcher chrome.Launcher,
	stabilizer stabilize.Stabilizer,
	site param.SiteProfile,
	opts Options,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		launcher:   launcher,
		stabilizer: stabilizer,
		site:       site,
		opts:       opts,
		normalizer: model.NewReviewNormalizer(site.Boilerplate),
		logger:     logger.Named("review"),
		metrics:    metrics,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, []string](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("创建评论缓存失败: %w", err)
		}
		s.cache = cache
	}
	if opts.Rate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.Rate), 1)
	}
	return s, nil
}

func (s *service) Extract(ctx context.Context, productURL string, count int) (string, error) {
	reviews, err := s.Collect(ctx, productURL, count)
	if err != nil {
		return "", err
	}
	return model.JoinReviews(reviews), nil
}

func (s *service) Collect(ctx context.Context, productURL string, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}
	if !model.IsAbsoluteURL(productURL) {
		s.logger.Debug("商品链接无效,跳过评论抓取", zap.String("url", productURL))
		return nil, nil
	}

	key := cacheKey{url: productURL, count: count}
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debug("命中评论缓存", zap.String("url", productURL))
			return append([]string(nil), cached...), nil
		}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	var (
		reviews    []string
		collectErr error
	)
	err := chrome.WithSession(ctx, s.launcher, s.opts.Headless, func(sess chrome.Session) error {
		reviews, collectErr = s.collectFrom(ctx, sess, productURL, count)
		return collectErr
	})
	s.metrics.ObserveReviewFetch(time.Since(start))

	switch {
	case err == nil:
	case chrome.IsLaunchError(err):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case collectErr == nil:
		// 评论已经拿到,只是关闭浏览器失败
		s.logger.Warn("关闭浏览器失败", zap.String("url", productURL), zap.Error(err))
	default:
		s.logger.Warn("评论抓取失败,返回空结果", zap.String("url", productURL), zap.Error(err))
		return nil, nil
	}

	s.metrics.AddReviews(len(reviews))
	if s.cache != nil {
		s.cache.Add(key, append([]string(nil), reviews...))
	}
	s.logger.Debug("评论抓取完成", zap.String("url", productURL), zap.Int("count", len(reviews)))
	return reviews, nil
}

func (s *service) collectFrom(ctx context.Context, sess chrome.Session, productURL string, count int) ([]string, error) {
	if err := sess.Navigate(ctx, productURL); err != nil {
		return nil, err
	}
	if err := s.stabilizer.Stabilize(ctx, sess, s.site.Popups, s.opts.Scrolls); err != nil {
		return nil, err
	}
	page, err := sess.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := selector.Parse(page)
	if err != nil {
		return nil, fmt.Errorf("解析页面失败: %w", err)
	}

	set := newReviewSet(count)
	blocks := selector.FindAll(doc.Selection, s.site.Reviews, 0)
	for i := 0; i < blocks.Length() && !set.Full(); i++ {
		text := s.normalizer.Normalize(selector.Text(blocks.Eq(i), " "))
		set.Add(text)
	}
	return set.Items(), nil
}
