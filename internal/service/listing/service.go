package listing

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/selector"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/LouYuanbo1/productreviews/internal/service/stabilize"
	"github.com/LouYuanbo1/productreviews/param"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReviewExtractor 为单个商品生成评论字段
type ReviewExtractor interface {
	Extract(ctx context.Context, productURL string, count int) (string, error)
}

// Service 抓取搜索结果页并为每个商品补充评论
type Service interface {
	// Extract 最多返回 maxProducts 个商品,顺序与页面一致
	// 单个商品字段缺失只会跳过该商品,浏览器启动或页面加载失败时返回错误
	Extract(ctx context.Context, query string, maxProducts, reviewCap int) (*Result, error)
}

type Options struct {
	Headless bool
	Scrolls  int
	// Workers 同时抓取评论的会话数,1 表示逐个抓取
	Workers int
}

type service struct {
	launcher   chrome.Launcher
	stabilizer stabilize.Stabilizer
	reviews    ReviewExtractor
	site       param.SiteProfile
	opts       Options
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func InitService(
	launcher chrome.Launcher,
	stabilizer stabilize.Stabilizer,
	reviews ReviewExtractor,
	site param.SiteProfile,
	opts Options,
	logger *zap.Logger,
	metrics *observability.Metrics,
) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &service{
		launcher:   launcher,
		stabilizer: stabilizer,
		reviews:    reviews,
		site:       site,
		opts:       opts,
		logger:     logger.Named("listing"),
		metrics:    metrics,
	}
}

func (s *service) Extract(ctx context.Context, query string, maxProducts, reviewCap int) (*Result, error) {
	result := &Result{
		Query: query,
		URL:   s.site.SearchURL(query),
	}
	if maxProducts <= 0 {
		return result, nil
	}

	err := chrome.WithSession(ctx, s.launcher, s.opts.Headless, func(sess chrome.Session) error {
		doc, err := s.load(ctx, sess, result.URL)
		if err != nil {
			return err
		}

		containers := selector.FindAll(doc.Selection, s.site.Containers, maxProducts)
		s.logger.Info("找到商品",
			zap.String("query", query),
			zap.Int("count", containers.Length()),
		)
		result.Outcomes = make([]ItemOutcome, containers.Length())
		containers.Each(func(i int, item *goquery.Selection) {
			result.Outcomes[i] = s.parseItem(i, item)
		})

		return s.enrich(ctx, result.Outcomes, reviewCap)
	})
	if err != nil {
		return nil, fmt.Errorf("抓取搜索结果失败: %w", err)
	}

	for _, o := range result.Outcomes {
		s.metrics.IncItem(o.label())
	}
	return result, nil
}

func (s *service) load(ctx context.Context, sess chrome.Session, url string) (*goquery.Document, error) {
	s.logger.Info("打开搜索页", zap.String("url", url))
	if err := sess.Navigate(ctx, url); err != nil {
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
	return doc, nil
}

// parseItem 标题和价格必填,评分、评论数和链接缺失时使用默认值
func (s *service) parseItem(index int, item *goquery.Selection) ItemOutcome {
	title, ok := selector.FirstText(item, s.site.Title)
	if !ok || title == "" {
		return s.skip(index, FieldError{Field: "title"})
	}
	price, ok := selector.FirstText(item, s.site.Price)
	if !ok || price == "" {
		return s.skip(index, FieldError{Field: "price"})
	}
	rating, _ := selector.FirstText(item, s.site.Rating)
	countText, _ := selector.FirstText(item, s.site.ReviewCount)

	rec := &model.ProductRecord{
		ProductID:    model.NotAvailable,
		Title:        title,
		Rating:       rating,
		TotalReviews: model.ParseReviewCount(countText),
		Price:        price,
		ReviewSample: model.NoReviewsFound,
	}
	if href, ok := selector.FirstAttr(item, s.site.Link, "href"); ok {
		rec.ProductID = model.ExtractProductID(href)
		rec.URL = model.ResolveURL(s.site.Origin, href)
	}

	s.logger.Info("解析商品",
		zap.Int("index", index),
		zap.String("title", truncate(title, 40)),
		zap.String("product_id", rec.ProductID),
	)
	return ItemOutcome{Index: index, Record: rec}
}

func (s *service) skip(index int, reason error) ItemOutcome {
	s.logger.Warn("跳过商品", zap.Int("index", index), zap.Error(reason))
	return ItemOutcome{Index: index, Reason: reason}
}

// enrich 为成功解析的商品抓取评论,结果写回各自的位置
func (s *service) enrich(ctx context.Context, outcomes []ItemOutcome, reviewCap int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := range outcomes {
		rec := outcomes[i].Record
		if rec == nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sample, err := s.reviews.Extract(gctx, rec.URL, reviewCap)
			if err != nil {
				return fmt.Errorf("抓取评论失败 (%s): %w", rec.ProductID, err)
			}
			rec.ReviewSample = sample
			return nil
		})
	}
	return g.Wait()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
