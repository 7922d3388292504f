package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
	DriverStatic   = "static"
)

type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger" json:"logger"`
	Browser       BrowserConfig       `mapstructure:"browser" json:"browser"`
	Scrape        ScrapeConfig        `mapstructure:"scrape" json:"scrape"`
	Output        OutputConfig        `mapstructure:"output" json:"output"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch" json:"elasticsearch"`
	Postgres      PostgresConfig      `mapstructure:"postgres" json:"postgres"`
	Embedder      EmbedderConfig      `mapstructure:"embedder" json:"embedder"`
	Metrics       MetricsConfig       `mapstructure:"metrics" json:"metrics"`
}

type LoggerConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Format      string `mapstructure:"format" json:"format"` // console 或 json
	ServiceName string `mapstructure:"service_name" json:"service_name"`
	LogFile     string `mapstructure:"log_file" json:"log_file"`
	MaxSize     int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" json:"max_age"`
	Compress    bool   `mapstructure:"compress" json:"compress"`
}

// BrowserConfig 浏览器驱动与反检测配置
type BrowserConfig struct {
	Driver               string        `mapstructure:"driver" json:"driver"`
	Bin                  string        `mapstructure:"bin" json:"bin"`
	UserAgent            string        `mapstructure:"user_agent" json:"user_agent"`
	WindowWidth          int           `mapstructure:"window_width" json:"window_width"`
	WindowHeight         int           `mapstructure:"window_height" json:"window_height"`
	NoSandbox            bool          `mapstructure:"no_sandbox" json:"no_sandbox"`
	DisableBlinkFeatures string        `mapstructure:"disable_blink_features" json:"disable_blink_features"`
	DisableDevShmUsage   bool          `mapstructure:"disable_dev_shm_usage" json:"disable_dev_shm_usage"`
	DisableGPU           bool          `mapstructure:"disable_gpu" json:"disable_gpu"`
	Leakless             bool          `mapstructure:"leakless" json:"leakless"`
	NavigationTimeout    time.Duration `mapstructure:"navigation_timeout" json:"navigation_timeout"`
}

type ScrapeConfig struct {
	Site            string        `mapstructure:"site" json:"site"`
	Query           string        `mapstructure:"query" json:"query"`
	MaxProducts     int           `mapstructure:"max_products" json:"max_products"`
	ReviewCount     int           `mapstructure:"review_count" json:"review_count"`
	ListingHeadless bool          `mapstructure:"listing_headless" json:"listing_headless"`
	ReviewHeadless  bool          `mapstructure:"review_headless" json:"review_headless"`
	ListingScrolls  int           `mapstructure:"listing_scrolls" json:"listing_scrolls"`
	ReviewScrolls   int           `mapstructure:"review_scrolls" json:"review_scrolls"`
	LoadSettle      time.Duration `mapstructure:"load_settle" json:"load_settle"`
	PopupSettle     time.Duration `mapstructure:"popup_settle" json:"popup_settle"`
	ScrollSettle    time.Duration `mapstructure:"scroll_settle" json:"scroll_settle"`
	ReviewWorkers   int           `mapstructure:"review_workers" json:"review_workers"`
	ReviewCacheSize int           `mapstructure:"review_cache_size" json:"review_cache_size"`
	// ReviewRate 每秒最多启动的评论会话数,0 表示不限速
	ReviewRate float64 `mapstructure:"review_rate" json:"review_rate"`
}

type OutputConfig struct {
	Dir  string `mapstructure:"dir" json:"dir"`
	File string `mapstructure:"file" json:"file"`
}

type ElasticsearchConfig struct {
	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"password"`
	Address  string `mapstructure:"address" json:"address"`
	Index    string `mapstructure:"index" json:"index"`
}

// PostgresConfig DSN 为空时不写入数据库
type PostgresConfig struct {
	DSN       string `mapstructure:"dsn" json:"dsn"`
	Schema    string `mapstructure:"schema" json:"schema"`
	MaxConns  int    `mapstructure:"max_conns" json:"max_conns"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size"`
}

type EmbedderConfig struct {
	Host      string `mapstructure:"host" json:"host"`
	Port      int    `mapstructure:"port" json:"port"`
	Model     string `mapstructure:"model" json:"model"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// Validate 检查配置是否自洽
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case DriverRod, DriverChromedp, DriverStatic:
	default:
		return fmt.Errorf("不支持的浏览器驱动 browser.driver=%q", c.Browser.Driver)
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return errors.New("browser.window_width 和 browser.window_height 必须大于0")
	}
	if c.Browser.NavigationTimeout < 0 {
		return errors.New("browser.navigation_timeout 不能为负数")
	}
	if c.Scrape.MaxProducts <= 0 {
		return errors.New("scrape.max_products 必须大于0")
	}
	if c.Scrape.ReviewCount < 0 {
		return errors.New("scrape.review_count 不能为负数")
	}
	if c.Scrape.ListingScrolls < 0 || c.Scrape.ReviewScrolls < 0 {
		return errors.New("scrape.listing_scrolls 和 scrape.review_scrolls 不能为负数")
	}
	if c.Scrape.LoadSettle < 0 || c.Scrape.PopupSettle < 0 || c.Scrape.ScrollSettle < 0 {
		return errors.New("scrape.load_settle, scrape.popup_settle 和 scrape.scroll_settle 不能为负数")
	}
	if c.Scrape.ReviewWorkers < 1 {
		return errors.New("scrape.review_workers 至少为1")
	}
	if c.Scrape.ReviewCacheSize < 0 {
		return errors.New("scrape.review_cache_size 不能为负数")
	}
	if c.Scrape.ReviewRate < 0 {
		return errors.New("scrape.review_rate 不能为负数")
	}
	if c.Output.File == "" {
		return errors.New("output.file 不能为空")
	}
	if c.Elasticsearch.Address != "" && c.Elasticsearch.Index == "" {
		return errors.New("设置 elasticsearch.address 时 elasticsearch.index 不能为空")
	}
	if c.Postgres.DSN != "" && c.Postgres.Schema == "" {
		return errors.New("设置 postgres.dsn 时 postgres.schema 不能为空")
	}
	return nil
}
