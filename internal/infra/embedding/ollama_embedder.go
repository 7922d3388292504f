package embedding

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/cloudwego/eino-ext/components/embedding/ollama"
)

type embedder struct {
	model     *ollama.Embedder
	batchSize int
}

// InitEmbedder 使用本地 ollama 服务生成向量
func InitEmbedder(ctx context.Context, cfg config.EmbedderConfig) (Embedder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("未配置向量模型")
	}
	model, err := ollama.NewEmbedder(ctx, &ollama.EmbeddingConfig{
		Model:   cfg.Model,
		BaseURL: BaseURL(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("初始化ollama向量模型失败: %w", err)
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	return &embedder{model: model, batchSize: batchSize}, nil
}

// BaseURL 端口为0时直接使用 host
func BaseURL(cfg config.EmbedderConfig) string {
	if cfg.Port <= 0 {
		return cfg.Host
	}
	return cfg.Host + ":" + strconv.Itoa(cfg.Port)
}

func (e *embedder) BatchSize() int {
	return e.batchSize
}

func (e *embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.model.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("生成向量失败: %w", err)
	}
	return toFloat32(vectors), nil
}

// toFloat32 EmbedStrings 返回 float64,索引中使用 float32
func toFloat32(vectors [][]float64) [][]float32 {
	out := make([][]float32, 0, len(vectors))
	for _, v := range vectors {
		f := make([]float32, len(v))
		for i, x := range v {
			f[i] = float32(x)
		}
		out = append(out, f)
	}
	return out
}
