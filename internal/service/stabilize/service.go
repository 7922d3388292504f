package stabilize

import (
	"context"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
	"go.uber.org/zap"
)

// Settle 各个步骤之后的等待时间
type Settle struct {
	Load   time.Duration
	Popup  time.Duration
	Scroll time.Duration
}

// Stabilizer 在读取页面内容前关闭弹窗并触发懒加载
// 只有 ctx 结束时才返回错误,页面操作失败视为未命中
type Stabilizer interface {
	Stabilize(ctx context.Context, sess chrome.Session, popups []types.Matcher, scrolls int) error
}

type stabilizer struct {
	settle Settle
	logger *zap.Logger
}

func InitStabilizer(settle Settle, logger *zap.Logger) Stabilizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &stabilizer{
		settle: settle,
		logger: logger.Named("stabilize"),
	}
}

func (s *stabilizer) Stabilize(ctx context.Context, sess chrome.Session, popups []types.Matcher, scrolls int) error {
	if err := Sleep(ctx, s.settle.Load); err != nil {
		return err
	}

	if len(popups) > 0 {
		clicked, err := sess.ClickFirst(ctx, popups)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			s.logger.Debug("关闭弹窗失败,忽略", zap.Error(err))
		case clicked:
			s.logger.Debug("已关闭弹窗")
			if err := Sleep(ctx, s.settle.Popup); err != nil {
				return err
			}
		default:
			s.logger.Debug("未发现弹窗")
		}
	}

	for i := range scrolls {
		if err := sess.PressEnd(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug("滚动失败,忽略", zap.Int("round", i+1), zap.Error(err))
		}
		if err := Sleep(ctx, s.settle.Scroll); err != nil {
			return err
		}
	}
	return nil
}

// Sleep 等待 d,ctx 结束时提前返回
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
