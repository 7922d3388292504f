package chrome

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const driverTestPage = `<html><body>
<div id="popup"><button onclick="document.getElementById('popup').remove()">✕</button></div>
<div class="review">Smooth clicks and long battery life</div>
</body></html>`

// localBrowser 本机没有浏览器时跳过,测试不会下载浏览器
func localBrowser(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("short 模式跳过真实浏览器测试")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("未找到本机浏览器")
	}
	return bin
}

func driverTestConfig(bin string) config.BrowserConfig {
	return config.BrowserConfig{
		Bin:                  bin,
		WindowWidth:          1280,
		WindowHeight:         720,
		NoSandbox:            true,
		DisableBlinkFeatures: "AutomationControlled",
		DisableDevShmUsage:   true,
		DisableGPU:           true,
		Leakless:             true,
		NavigationTimeout:    30 * time.Second,
	}
}

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, driverTestPage)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// exerciseSession 完整走一遍会话的所有操作
func exerciseSession(t *testing.T, l Launcher, url string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// 使用一个在 Acquire 之后就结束的 ctx 启动,浏览器必须继续存活
	acquireCtx, acquireCancel := context.WithCancel(ctx)
	sess, err := l.Acquire(acquireCtx, true)
	acquireCancel()
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, sess.Close())
		assert.NoError(t, sess.Close())
	}()

	require.NoError(t, sess.Navigate(ctx, url))

	clicked, err := sess.ClickFirst(ctx, []types.Matcher{
		{Selector: "span", Text: "✕"},
		{Selector: "button", Text: "✕"},
	})
	require.NoError(t, err)
	assert.True(t, clicked)

	missed, err := sess.ClickFirst(ctx, []types.Matcher{{Selector: "button", Text: "Close"}})
	require.NoError(t, err)
	assert.False(t, missed)

	require.NoError(t, sess.PressEnd(ctx))

	html, err := sess.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "Smooth clicks and long battery life")
	assert.NotContains(t, html, `id="popup"`)
}

func TestRodDriverSession(t *testing.T) {
	bin := localBrowser(t)
	srv := pageServer(t)
	exerciseSession(t, InitRodLauncher(driverTestConfig(bin), nil, nil, nil), srv.URL)
}

func TestChromedpDriverSession(t *testing.T) {
	bin := localBrowser(t)
	srv := pageServer(t)
	exerciseSession(t, InitChromedpLauncher(driverTestConfig(bin), nil, nil, nil), srv.URL)
}

func TestChromedpDriverCanceledBeforeLaunch(t *testing.T) {
	bin := localBrowser(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := InitChromedpLauncher(driverTestConfig(bin), nil, nil, nil).Acquire(ctx, true)
	require.Error(t, err)
	assert.False(t, IsLaunchError(err))
}
