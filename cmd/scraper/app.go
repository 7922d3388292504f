package main

import (
	"context"
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler"
	"github.com/LouYuanbo1/productreviews/internal/infra/embedding"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/LouYuanbo1/productreviews/internal/infra/persistence/csvfile"
	"github.com/LouYuanbo1/productreviews/internal/infra/persistence/es"
	"github.com/LouYuanbo1/productreviews/internal/infra/persistence/pgstore"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/LouYuanbo1/productreviews/internal/service/ingest"
	"github.com/LouYuanbo1/productreviews/internal/service/listing"
	"github.com/LouYuanbo1/productreviews/internal/service/pipeline"
	"github.com/LouYuanbo1/productreviews/internal/service/review"
	"github.com/LouYuanbo1/productreviews/internal/service/stabilize"
	"github.com/LouYuanbo1/productreviews/param"
	"go.uber.org/zap"
)

type app struct {
	pipeline pipeline.Service
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp 按配置组装各个组件
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*app, error) {
	a := &app{}

	site, err := param.ProfileFor(cfg.Scrape.Site)
	if err != nil {
		return nil, err
	}

	launcher, err := crawler.InitLauncher(cfg.Browser, hostenv.InitResolver(logger), logger, metrics)
	if err != nil {
		return nil, err
	}

	stabilizer := stabilize.InitStabilizer(stabilize.Settle{
		Load:   cfg.Scrape.LoadSettle,
		Popup:  cfg.Scrape.PopupSettle,
		Scroll: cfg.Scrape.ScrollSettle,
	}, logger)

	reviews, err := review.InitService(launcher, stabilizer, site, review.Options{
		Headless:  cfg.Scrape.ReviewHeadless,
		Scrolls:   cfg.Scrape.ReviewScrolls,
		CacheSize: cfg.Scrape.ReviewCacheSize,
		Rate:      cfg.Scrape.ReviewRate,
	}, logger, metrics)
	if err != nil {
		return nil, err
	}

	listingService := listing.InitService(launcher, stabilizer, reviews, site, listing.Options{
		Headless: cfg.Scrape.ListingHeadless,
		Scrolls:  cfg.Scrape.ListingScrolls,
		Workers:  cfg.Scrape.ReviewWorkers,
	}, logger, metrics)

	var opts []pipeline.Option
	if cfg.Elasticsearch.Address != "" {
		sink, err := buildIngestSink(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithSink(sink))
	}
	if cfg.Postgres.DSN != "" {
		store, err := pgstore.InitStore(ctx, cfg.Postgres, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, pipeline.WithSink(pipeline.StoreSink(store)))
	}

	a.pipeline = pipeline.InitService(listingService, csvfile.InitWriter(cfg.Output.Dir), logger, opts...)
	return a, nil
}

func buildIngestSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (pipeline.RecordSink, error) {
	client, err := es.InitTypedEsClient(cfg.Elasticsearch, logger)
	if err != nil {
		return nil, err
	}
	var embedder embedding.Embedder
	if cfg.Embedder.Model != "" {
		embedder, err = embedding.InitEmbedder(ctx, cfg.Embedder)
		if err != nil {
			return nil, fmt.Errorf("初始化Embedder失败: %w", err)
		}
	}
	return pipeline.IngestSink(ingest.InitService(client, embedder, logger)), nil
}
