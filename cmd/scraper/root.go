package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/LouYuanbo1/productreviews/param"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configFile  string
	query       string
	maxProducts int
	reviews     int
	output      string
	driver      string
	workers     int
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "scraper",
		Short:        "抓取电商搜索结果及商品评论并保存为CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, opts, cfg); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runScrape(ctx, cmd, cfg)
		},
	}

	flags := cmd.Flags()
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "配置文件路径 (json/yaml)")
	flags.StringVarP(&opts.query, "query", "q", "", "搜索关键词")
	flags.IntVarP(&opts.maxProducts, "max-products", "n", 0, "最多抓取的商品数量")
	flags.IntVarP(&opts.reviews, "reviews", "r", 0, "每个商品抓取的评论数量")
	flags.StringVarP(&opts.output, "output", "o", "", "输出文件名")
	flags.StringVar(&opts.driver, "driver", "", "浏览器驱动: rod, chromedp 或 static")
	flags.IntVar(&opts.workers, "workers", 0, "同时抓取评论的会话数")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Prometheus 指标监听地址,例如 :9090")

	cmd.AddCommand(newChromeVersionCmd(opts))
	return cmd
}

// applyFlags 只有显式传入的参数才覆盖配置
func applyFlags(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("query") {
		cfg.Scrape.Query = opts.query
	}
	if flags.Changed("max-products") {
		cfg.Scrape.MaxProducts = opts.maxProducts
	}
	if flags.Changed("reviews") {
		cfg.Scrape.ReviewCount = opts.reviews
	}
	if flags.Changed("output") {
		cfg.Output.File = opts.output
	}
	if flags.Changed("driver") {
		cfg.Browser.Driver = opts.driver
	}
	if flags.Changed("workers") {
		cfg.Scrape.ReviewWorkers = opts.workers
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("参数校验失败: %w", err)
	}
	return nil
}

func runScrape(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.Logger)
	defer func() { _ = logger.Sync() }()

	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		shutdown := serveMetrics(cfg.Metrics.Addr, metrics, logger)
		defer shutdown()
	}

	app, err := buildApp(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("初始化失败", zap.Error(err))
		return err
	}
	defer app.close()

	report, err := app.pipeline.Run(ctx, param.Scrape{
		Query:       cfg.Scrape.Query,
		MaxProducts: cfg.Scrape.MaxProducts,
		ReviewCount: cfg.Scrape.ReviewCount,
		Filename:    cfg.Output.File,
	})
	if err != nil {
		if chrome.IsLaunchError(err) {
			logger.Error("浏览器启动失败,任务终止", zap.Error(err))
		} else {
			logger.Error("抓取失败", zap.Error(err))
		}
		return err
	}

	for _, s := range report.Skipped {
		logger.Warn("商品已跳过", zap.String("run_id", report.RunID), zap.Int("index", s.Index), zap.Error(s.Reason))
	}
	renderSummary(cmd.OutOrStdout(), report)
	for _, s := range report.Sinks {
		if s.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s 写入失败: %v\n", s.Name, s.Err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "共 %d 个商品,数据已保存到: %s\n", len(report.Records), report.Path)
	return nil
}

func serveMetrics(addr string, metrics *observability.Metrics, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("指标服务异常退出", zap.Error(err))
		}
	}()
	logger.Info("指标服务已启动", zap.String("addr", addr))
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
