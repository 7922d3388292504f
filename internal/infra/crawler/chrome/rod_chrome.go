package chrome

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

type rodLauncher struct {
	pin        *binaryPin
	navTimeout time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func InitRodLauncher(cfg config.BrowserConfig, resolver hostenv.Resolver, logger *zap.Logger, metrics *observability.Metrics) Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("rod")
	return &rodLauncher{
		pin:        &binaryPin{cfg: cfg, resolver: resolver, logger: logger},
		navTimeout: cfg.NavigationTimeout,
		logger:     logger,
		metrics:    metrics,
	}
}

func (rl *rodLauncher) Acquire(ctx context.Context, headless bool) (Session, error) {
	l := rl.pin.profile(ctx, headless).RodLauncher()
	controlURL, err := l.Launch()
	if err != nil {
		rl.metrics.IncLaunchFailure(config.DriverRod)
		return nil, LaunchError{Err: err}
	}

	// 视口由 --window-size 决定,不使用 rod 默认的设备模拟
	browser := rod.New().ControlURL(controlURL).NoDefaultDevice()
	if err := browser.Connect(); err != nil {
		l.Kill()
		rl.metrics.IncLaunchFailure(config.DriverRod)
		return nil, LaunchError{Err: fmt.Errorf("连接浏览器失败: %w", err)}
	}

	// stealth.Page 在新页面上注入反检测脚本
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		l.Kill()
		rl.metrics.IncLaunchFailure(config.DriverRod)
		return nil, LaunchError{Err: fmt.Errorf("创建页面失败: %w", err)}
	}

	rl.metrics.IncSession(config.DriverRod, headless)
	rl.logger.Debug("浏览器已启动", zap.Bool("headless", headless), zap.String("control_url", controlURL))

	return &rodSession{
		launcher:   l,
		browser:    browser,
		page:       page,
		navTimeout: rl.navTimeout,
	}, nil
}

type rodSession struct {
	launcher   *launcher.Launcher
	browser    *rod.Browser
	page       *rod.Page
	navTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (rs *rodSession) Navigate(ctx context.Context, url string) error {
	page := rs.page.Context(ctx)
	if rs.navTimeout > 0 {
		page = page.Timeout(rs.navTimeout)
		defer page.CancelTimeout()
	}
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败: %w", err)
	}
	return nil
}

func (rs *rodSession) ClickFirst(ctx context.Context, matchers []types.Matcher) (bool, error) {
	page := rs.page.Context(ctx)
	for _, m := range matchers {
		var (
			has bool
			el  *rod.Element
			err error
		)
		if m.Text != "" {
			has, el, err = page.HasR(m.Selector, regexp.QuoteMeta(m.Text))
		} else {
			has, el, err = page.Has(m.Selector)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			continue
		}
		if !has {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return false, fmt.Errorf("点击失败: %w", err)
		}
		return true, nil
	}
	return false, nil
}

func (rs *rodSession) PressEnd(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := rs.page.Keyboard.Press(input.End); err != nil {
		return fmt.Errorf("执行 End 按键失败: %w", err)
	}
	return nil
}

func (rs *rodSession) HTML(ctx context.Context) (string, error) {
	html, err := rs.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	return html, nil
}

func (rs *rodSession) Close() error {
	rs.closeOnce.Do(func() {
		err := rs.browser.Close()
		// 浏览器已经退出时 Kill 也是安全的
		rs.launcher.Kill()
		rs.launcher.Cleanup()
		if err != nil && !errors.Is(err, context.Canceled) {
			rs.closeErr = err
		}
	})
	return rs.closeErr
}
