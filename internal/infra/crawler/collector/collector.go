// Package collector 基于 colly 的静态抓取驱动
// 只下载服务端返回的 HTML,不执行脚本,适合结构稳定或已经服务端渲染的页面
package collector

import (
	"net/http"
)

type Option func(*collyLauncher)

// WithTransport 替换底层 HTTP Transport,主要用于测试
func WithTransport(rt http.RoundTripper) Option {
	return func(cl *collyLauncher) { cl.transport = rt }
}

// WithHeaders 每个请求附加的请求头
func WithHeaders(headers map[string]string) Option {
	return func(cl *collyLauncher) { cl.headers = headers }
}
