package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"github.com/LouYuanbo1/productreviews/internal/observability"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"
)

// 在页面中查找第一个匹配选择器且包含指定文本的元素并点击
const clickFirstJS = `(function(selector, text) {
	let nodes;
	try {
		nodes = document.querySelectorAll(selector);
	} catch (e) {
		return false;
	}
	for (const el of nodes) {
		if (!text || (el.textContent || "").includes(text)) {
			el.click();
			return true;
		}
	}
	return false;
})(%s, %s)`

type chromedpLauncher struct {
	pin        *binaryPin
	navTimeout time.Duration
	logger     *zap.Logger
	metrics    *observability.Metrics
}

func InitChromedpLauncher(cfg config.BrowserConfig, resolver hostenv.Resolver, logger *zap.Logger, metrics *observability.Metrics) Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("chromedp")
	return &chromedpLauncher{
		pin:        &binaryPin{cfg: cfg, resolver: resolver, logger: logger},
		navTimeout: cfg.NavigationTimeout,
		logger:     logger,
		metrics:    metrics,
	}
}

func (cl *chromedpLauncher) Acquire(ctx context.Context, headless bool) (Session, error) {
	opts := cl.pin.profile(ctx, headless).ChromedpOptions()
	// 浏览器生命周期由 Close 控制,不跟随调用方的 ctx
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// 第一次 Run 才会真正启动浏览器,必须直接在 tabCtx 上执行,
	// 浏览器进程绑定在这次 Run 的 ctx 上
	err := launchWithCaller(ctx, cancelTab, func() error {
		return chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
	})
	if err != nil {
		cancelTab()
		cancelAlloc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		cl.metrics.IncLaunchFailure(config.DriverChromedp)
		return nil, LaunchError{Err: err}
	}

	cl.metrics.IncSession(config.DriverChromedp, headless)
	cl.logger.Debug("浏览器已启动", zap.Bool("headless", headless))

	return &chromedpSession{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		navTimeout:  cl.navTimeout,
	}, nil
}

type chromedpSession struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration

	closeOnce sync.Once
	closeErr  error
}

// launchWithCaller 启动期间调用方 ctx 结束时取消整个标签页,启动完成后解除关联
func launchWithCaller(caller context.Context, cancelTab context.CancelFunc, launch func() error) error {
	stop := context.AfterFunc(caller, cancelTab)
	err := launch()
	if !stop() {
		// AfterFunc 已经执行,标签页已被取消
		if err == nil {
			err = context.Cause(caller)
		}
	}
	return err
}

// callerScope 派生一个只用于单次动作的 ctx,调用方 ctx 结束时一并取消
// 返回的 cancel 只影响这次动作,不会关闭 tabCtx 对应的浏览器
func callerScope(caller, tabCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(caller, cancel)
	if timeout <= 0 {
		return runCtx, func() {
			stop()
			cancel()
		}
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(runCtx, timeout)
	return timeoutCtx, func() {
		cancelTimeout()
		stop()
		cancel()
	}
}

// runWithCaller 在已启动的浏览器上执行动作,不能用于第一次启动
func runWithCaller(caller, tabCtx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := callerScope(caller, tabCtx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (cs *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := runWithCaller(ctx, cs.tabCtx, cs.navTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("导航失败: %w", err)
	}
	return nil
}

func (cs *chromedpSession) ClickFirst(ctx context.Context, matchers []types.Matcher) (bool, error) {
	for _, m := range matchers {
		sel, _ := json.Marshal(m.Selector)
		text, _ := json.Marshal(m.Text)
		var clicked bool
		err := runWithCaller(ctx, cs.tabCtx, 0, chromedp.Evaluate(fmt.Sprintf(clickFirstJS, sel, text), &clicked))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return false, ctxErr
			}
			return false, fmt.Errorf("点击失败: %w", err)
		}
		if clicked {
			return true, nil
		}
	}
	return false, nil
}

func (cs *chromedpSession) PressEnd(ctx context.Context) error {
	if err := runWithCaller(ctx, cs.tabCtx, 0, chromedp.KeyEvent(kb.End)); err != nil {
		return fmt.Errorf("执行 End 按键失败: %w", err)
	}
	return nil
}

func (cs *chromedpSession) HTML(ctx context.Context) (string, error) {
	var html string
	if err := runWithCaller(ctx, cs.tabCtx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("获取页面HTML失败: %w", err)
	}
	return html, nil
}

func (cs *chromedpSession) Close() error {
	cs.closeOnce.Do(func() {
		// Cancel 会正常关闭浏览器进程并等待其退出
		cs.closeErr = chromedp.Cancel(cs.tabCtx)
		cs.cancelTab()
		cs.cancelAlloc()
	})
	return cs.closeErr
}
