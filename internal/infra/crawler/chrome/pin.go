package chrome

import (
	"context"
	"sync"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/options"
	"github.com/LouYuanbo1/productreviews/internal/infra/hostenv"
	"go.uber.org/zap"
)

// binaryPin 只在第一次启动时探测本机浏览器
// 探测不到时 bin 为空,由驱动自行查找或下载
type binaryPin struct {
	cfg      config.BrowserConfig
	resolver hostenv.Resolver
	logger   *zap.Logger

	once sync.Once
	bin  string
}

func (bp *binaryPin) resolve(ctx context.Context) string {
	bp.once.Do(func() {
		if bp.cfg.Bin != "" {
			bp.bin = bp.cfg.Bin
			return
		}
		if bp.resolver == nil {
			return
		}
		inst, ok := bp.resolver.Probe(ctx)
		if !ok {
			bp.logger.Info("未检测到本机浏览器版本,使用驱动默认查找")
			return
		}
		bp.logger.Info("使用本机浏览器",
			zap.Int("major_version", inst.Major),
			zap.String("bin", inst.Bin),
		)
		bp.bin = inst.Bin
	})
	return bp.bin
}

func (bp *binaryPin) profile(ctx context.Context, headless bool) *options.Profile {
	return options.NewProfile(
		options.WithBin(bp.resolve(ctx)),
		options.WithHeadless(headless),
		options.WithUserAgent(bp.cfg.UserAgent),
		options.WithWindowSize(bp.cfg.WindowWidth, bp.cfg.WindowHeight),
		options.WithNoSandbox(bp.cfg.NoSandbox),
		options.WithDisableBlinkFeatures(bp.cfg.DisableBlinkFeatures),
		options.WithDisableDevShmUsage(bp.cfg.DisableDevShmUsage),
		options.WithDisableGPU(bp.cfg.DisableGPU),
		options.WithLeakless(bp.cfg.Leakless),
	)
}
