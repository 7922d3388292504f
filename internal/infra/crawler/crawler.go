package crawler

import (
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/collector"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"go.uber.org/zap"
)

// InitLauncher 按配置选择浏览器驱动
func InitLauncher(cfg config.BrowserConfig, resolver hostenv.Resolver, logger *zap.Logger, metrics *observability.Metrics) (chrome.Launcher, error) {
	switch cfg.Driver {
	case config.DriverRod, "":
		return chrome.InitRodLauncher(cfg, resolver, logger, metrics), nil
	case config.DriverChromedp:
		return chrome.InitChromedpLauncher(cfg, resolver, logger, metrics), nil
	case config.DriverStatic:
		return collector.InitCollyLauncher(cfg, logger, metrics), nil
	default:
		return nil, fmt.Errorf("未知的浏览器驱动: %s", cfg.Driver)
	}
}
