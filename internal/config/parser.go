package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PRODREVIEWS"

// envKeys 没有默认值的配置项,需要显式绑定才能从环境变量读取
var envKeys = []string{
	"logger.log_file",
	"logger.compress",
	"browser.bin",
	"scrape.query",
	"elasticsearch.username",
	"elasticsearch.password",
	"elasticsearch.address",
	"postgres.dsn",
	"embedder.model",
	"metrics.addr",
}

// SetDefaults 默认值与原始抓取脚本的行为保持一致
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "productreviews")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)

	v.SetDefault("browser.driver", DriverRod)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.disable_blink_features", "AutomationControlled")
	v.SetDefault("browser.disable_dev_shm_usage", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.leakless", true)
	v.SetDefault("browser.navigation_timeout", time.Duration(0))

	v.SetDefault("scrape.site", "flipkart")
	v.SetDefault("scrape.max_products", 5)
	v.SetDefault("scrape.review_count", 2)
	v.SetDefault("scrape.listing_headless", false)
	v.SetDefault("scrape.review_headless", true)
	v.SetDefault("scrape.listing_scrolls", 0)
	v.SetDefault("scrape.review_scrolls", 3)
	v.SetDefault("scrape.load_settle", 4*time.Second)
	v.SetDefault("scrape.popup_settle", time.Second)
	v.SetDefault("scrape.scroll_settle", 1500*time.Millisecond)
	v.SetDefault("scrape.review_workers", 1)
	v.SetDefault("scrape.review_cache_size", 128)
	v.SetDefault("scrape.review_rate", 0.0)

	v.SetDefault("output.dir", "data")
	v.SetDefault("output.file", "product_reviews.csv")

	v.SetDefault("elasticsearch.index", "product_reviews")
	v.SetDefault("postgres.schema", "public")
	v.SetDefault("postgres.max_conns", 2)
	v.SetDefault("postgres.batch_size", 200)
	v.SetDefault("embedder.host", "http://localhost")
	v.SetDefault("embedder.port", 11434)
	v.SetDefault("embedder.batch_size", 16)
}

// Load 读取配置: 默认值 < 配置文件 < 环境变量
// path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("绑定环境变量失败: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if cfg.Logger.LogFile != "" {
		absPath, err := filepath.Abs(cfg.Logger.LogFile)
		if err != nil {
			return nil, err
		}
		cfg.Logger.LogFile = absPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}
	return &cfg, nil
}
