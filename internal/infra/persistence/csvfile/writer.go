package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
)

// Writer 把商品记录写成带表头的 UTF-8 CSV 文件
type Writer interface {
	// Save 写入 dir/<filename 的文件名部分>,返回实际路径
	Save(records []model.ProductRecord, filename string) (string, error)
}

type writer struct {
	dir string
}

func InitWriter(dir string) Writer {
	return &writer{dir: dir}
}

func (w *writer) Save(records []model.ProductRecord, filename string) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("无效的文件名: %q", filename)
	}
	path := filepath.Join(w.dir, base)
	if err := ensureDir(path); err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("创建CSV文件失败: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(model.Columns); err != nil {
		return "", fmt.Errorf("写入表头失败: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Row()); err != nil {
			return "", fmt.Errorf("写入记录失败: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("刷新CSV失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("关闭CSV文件失败: %w", err)
	}
	return path, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建目录 %q 失败: %w", dir, err)
	}
	return nil
}
