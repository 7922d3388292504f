package embedding

import "context"

// Embedder 将文本转换为向量
type Embedder interface {
	BatchSize() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
