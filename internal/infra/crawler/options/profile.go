package options

import (
	"fmt"
	"sort"

	"github.com/chromedp/chromedp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// Profile 浏览器启动参数,即一次会话固定的反检测配置
type Profile struct {
	Bin                  string
	Headless             bool
	UserAgent            string
	WindowWidth          int
	WindowHeight         int
	NoSandbox            bool
	DisableBlinkFeatures string
	DisableDevShmUsage   bool
	DisableGPU           bool
	Leakless             bool
}

type Option func(*Profile)

func WithBin(bin string) Option {
	return func(p *Profile) { p.Bin = bin }
}

func WithHeadless(headless bool) Option {
	return func(p *Profile) { p.Headless = headless }
}

func WithUserAgent(ua string) Option {
	return func(p *Profile) { p.UserAgent = ua }
}

func WithWindowSize(width, height int) Option {
	return func(p *Profile) {
		p.WindowWidth = width
		p.WindowHeight = height
	}
}

func WithNoSandbox(noSandbox bool) Option {
	return func(p *Profile) { p.NoSandbox = noSandbox }
}

func WithDisableBlinkFeatures(features string) Option {
	return func(p *Profile) { p.DisableBlinkFeatures = features }
}

func WithDisableDevShmUsage(disable bool) Option {
	return func(p *Profile) { p.DisableDevShmUsage = disable }
}

func WithDisableGPU(disable bool) Option {
	return func(p *Profile) { p.DisableGPU = disable }
}

func WithLeakless(leakless bool) Option {
	return func(p *Profile) { p.Leakless = leakless }
}

// NewProfile 默认窗口 1920x1080,其余按选项设置
func NewProfile(opts ...Option) *Profile {
	p := &Profile{
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Flags 不含 headless 的命令行开关,key 不带 "--" 前缀
func (p *Profile) Flags() map[string]string {
	f := map[string]string{
		"window-size": fmt.Sprintf("%d,%d", p.WindowWidth, p.WindowHeight),
	}
	if p.NoSandbox {
		f["no-sandbox"] = ""
	}
	if p.DisableBlinkFeatures != "" {
		f["disable-blink-features"] = p.DisableBlinkFeatures
	}
	if p.DisableDevShmUsage {
		f["disable-dev-shm-usage"] = ""
	}
	if p.DisableGPU {
		f["disable-gpu"] = ""
	}
	if p.UserAgent != "" {
		f["user-agent"] = p.UserAgent
	}
	return f
}

// Args 以 "--name[=value]" 形式输出,按名称排序
func (p *Profile) Args() []string {
	f := p.Flags()
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]string, 0, len(names)+1)
	for _, name := range names {
		if v := f[name]; v != "" {
			args = append(args, fmt.Sprintf("--%s=%s", name, v))
		} else {
			args = append(args, "--"+name)
		}
	}
	if p.Headless {
		args = append(args, "--headless=new")
	}
	return args
}

// RodLauncher 生成 rod 的启动器,调用方负责 Launch 和 Kill
func (p *Profile) RodLauncher() *launcher.Launcher {
	l := launcher.New().
		Headless(p.Headless).
		NoSandbox(p.NoSandbox).
		Leakless(p.Leakless)
	if p.Headless {
		// 新版 headless 与有界面模式的指纹更接近
		l = l.Set(flags.Headless, "new")
	}
	if p.Bin != "" {
		l = l.Bin(p.Bin)
	}
	for name, value := range p.Flags() {
		if name == "no-sandbox" {
			continue
		}
		if value == "" {
			l = l.Set(flags.Flag(name))
		} else {
			l = l.Set(flags.Flag(name), value)
		}
	}
	// rod 默认会加 --enable-automation,这里去掉
	return l.Delete(flags.Flag("enable-automation"))
}

// ChromedpOptions 生成 chromedp 的 allocator 选项
func (p *Profile) ChromedpOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", p.Headless),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(p.WindowWidth, p.WindowHeight),
	)
	if p.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if p.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if p.DisableBlinkFeatures != "" {
		opts = append(opts, chromedp.Flag("disable-blink-features", p.DisableBlinkFeatures))
	}
	if p.DisableDevShmUsage {
		opts = append(opts, chromedp.Flag("disable-dev-shm-usage", true))
	}
	if p.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if p.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.UserAgent))
	}
	if p.Bin != "" {
		opts = append(opts, chromedp.ExecPath(p.Bin))
	}
	return opts
}
