// Package chrometest 提供不依赖真实浏览器的 Launcher/Session 实现,页面内容由内存中的 HTML 提供
package chrometest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
)

var ErrPageNotFound = errors.New("页面不存在")

// FakeLauncher 按 URL 返回预置的 HTML
type FakeLauncher struct {
	// Pages URL 到页面 HTML 的映射
	Pages map[string]string
	// NavErrs 导航到指定 URL 时返回的错误
	NavErrs map[string]error
	// Clickable 可被点击命中的选择器
	Clickable map[string]bool
	// LaunchErr 非空时 Acquire 返回 chrome.LaunchError
	LaunchErr error

	mu       sync.Mutex
	sessions []*FakeSession
	headless []bool
	active   int
	maxLive  int
}

var _ chrome.Launcher = (*FakeLauncher)(nil)

func (fl *FakeLauncher) Acquire(ctx context.Context, headless bool) (chrome.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fl.LaunchErr != nil {
		return nil, chrome.LaunchError{Err: fl.LaunchErr}
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	s := &FakeSession{launcher: fl, Headless: headless}
	fl.sessions = append(fl.sessions, s)
	fl.headless = append(fl.headless, headless)
	fl.active++
	if fl.active > fl.maxLive {
		fl.maxLive = fl.active
	}
	return s, nil
}

// Sessions 返回所有已创建的会话
func (fl *FakeLauncher) Sessions() []*FakeSession {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return append([]*FakeSession(nil), fl.sessions...)
}

// Acquired 已创建的会话数
func (fl *FakeLauncher) Acquired() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return len(fl.sessions)
}

// Live 尚未关闭的会话数
func (fl *FakeLauncher) Live() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.active
}

// MaxLive 同时存活的会话数峰值
func (fl *FakeLauncher) MaxLive() int {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.maxLive
}

// HeadlessModes 按创建顺序返回每个会话的 headless 模式
func (fl *FakeLauncher) HeadlessModes() []bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return append([]bool(nil), fl.headless...)
}

func (fl *FakeLauncher) release() {
	fl.mu.Lock()
	fl.active--
	fl.mu.Unlock()
}

// FakeSession 记录对页面的所有操作
type FakeSession struct {
	launcher *FakeLauncher
	Headless bool

	mu         sync.Mutex
	current    string
	Visited    []string
	Clicks     int
	EndPresses int
	CloseCalls int
}

var _ chrome.Session = (*FakeSession)(nil)

func (fs *FakeSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.Visited = append(fs.Visited, url)
	if err, ok := fs.launcher.NavErrs[url]; ok {
		return err
	}
	if _, ok := fs.launcher.Pages[url]; !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, url)
	}
	fs.current = url
	return nil
}

func (fs *FakeSession) ClickFirst(ctx context.Context, matchers []types.Matcher) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, m := range matchers {
		if fs.launcher.Clickable[m.Selector] {
			fs.Clicks++
			return true, nil
		}
	}
	return false, nil
}

func (fs *FakeSession) PressEnd(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	fs.EndPresses++
	fs.mu.Unlock()
	return nil
}

func (fs *FakeSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.current == "" {
		return "", errors.New("页面尚未加载")
	}
	return fs.launcher.Pages[fs.current], nil
}

func (fs *FakeSession) Close() error {
	fs.mu.Lock()
	fs.CloseCalls++
	first := fs.CloseCalls == 1
	fs.mu.Unlock()
	if first {
		fs.launcher.release()
	}
	return nil
}

// Closed 会话是否至少被关闭过一次
func (fs *FakeSession) Closed() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.CloseCalls > 0
}
