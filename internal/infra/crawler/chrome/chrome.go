package chrome

import (
	"context"
	"errors"
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
)

// Session 一个独占的浏览器进程及其当前页面
// 同一个 Session 不会在多次抽取之间共享
type Session interface {
	Navigate(ctx context.Context, url string) error
	// ClickFirst 点击第一个命中的匹配器对应的元素,未命中返回 false 而不是错误
	ClickFirst(ctx context.Context, matchers []types.Matcher) (bool, error)
	// PressEnd 模拟 End 键滚动到页面底部
	PressEnd(ctx context.Context) error
	HTML(ctx context.Context) (string, error)
	// Close 结束浏览器进程,多次调用只生效一次
	Close() error
}

// Launcher 按需启动浏览器会话
type Launcher interface {
	Acquire(ctx context.Context, headless bool) (Session, error)
}

// LaunchError 浏览器启动失败,属于不可恢复的错误
type LaunchError struct {
	Err error
}

func (e LaunchError) Error() string {
	return fmt.Errorf("启动浏览器失败: %w", e.Err).Error()
}

func (e LaunchError) Unwrap() error {
	return e.Err
}

// IsLaunchError 判断错误链中是否有启动失败
func IsLaunchError(err error) bool {
	var le LaunchError
	return errors.As(err, &le)
}

// WithSession 获取会话并执行 fn,无论 fn 是否出错或 panic 都会关闭会话
func WithSession(ctx context.Context, l Launcher, headless bool, fn func(Session) error) (err error) {
	sess, err := l.Acquire(ctx, headless)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := sess.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("关闭浏览器失败: %w", closeErr)
		}
	}()
	return fn(sess)
}
