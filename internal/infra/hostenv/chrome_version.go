package hostenv

import (
	"context"
	"os/exec"
	"regexp"
	"strconv"

	"github.com/shirou/gopsutil/v4/host"
	"go.uber.org/zap"
)

var versionRe = regexp.MustCompile(`(\d+)\.\d+\.\d+\.\d+`)

// Installation 本机安装的浏览器
type Installation struct {
	Major   int
	Version string
	// Bin 可执行文件路径,Windows 注册表探测时为空
	Bin string
}

type Resolver interface {
	Probe(ctx context.Context) (Installation, bool)
	ChromeMajorVersion(ctx context.Context) (int, bool)
}

type resolver struct {
	logger   *zap.Logger
	osName   func(ctx context.Context) (string, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	lookPath func(file string) (string, error)
}

func InitResolver(logger *zap.Logger) Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &resolver{
		logger:   logger.Named("hostenv"),
		osName:   hostOS,
		run:      runCommand,
		lookPath: exec.LookPath,
	}
}

func hostOS(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.OS, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// 各平台上常见的浏览器可执行文件
var candidates = map[string][]string{
	"linux": {
		"google-chrome",
		"google-chrome-stable",
		"chromium",
		"chromium-browser",
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
}

// Probe 探测失败时返回 false,调用方回退到驱动自带的查找逻辑
func (r *resolver) Probe(ctx context.Context) (Installation, bool) {
	osName, err := r.osName(ctx)
	if err != nil {
		r.logger.Debug("获取操作系统信息失败", zap.Error(err))
		return Installation{}, false
	}

	if osName == "windows" {
		out, err := r.run(ctx, "reg", "query", `HKEY_CURRENT_USER\Software\Google\Chrome\BLBeacon`, "/v", "version")
		if err != nil {
			r.logger.Debug("读取注册表失败", zap.Error(err))
			return Installation{}, false
		}
		return parseInstallation(string(out), "")
	}

	for _, name := range candidates[osName] {
		bin, err := r.lookPath(name)
		if err != nil {
			continue
		}
		out, err := r.run(ctx, bin, "--version")
		if err != nil {
			r.logger.Debug("获取浏览器版本失败", zap.String("bin", bin), zap.Error(err))
			continue
		}
		if inst, ok := parseInstallation(string(out), bin); ok {
			r.logger.Debug("找到本机浏览器", zap.String("bin", bin), zap.String("version", inst.Version))
			return inst, true
		}
	}
	return Installation{}, false
}

func (r *resolver) ChromeMajorVersion(ctx context.Context) (int, bool) {
	inst, ok := r.Probe(ctx)
	if !ok {
		return 0, false
	}
	return inst.Major, true
}

func parseInstallation(output, bin string) (Installation, bool) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return Installation{}, false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Installation{}, false
	}
	return Installation{Major: major, Version: m[0], Bin: bin}, true
}
