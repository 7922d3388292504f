package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/infra/embedding"
	"github.com/LouYuanbo1/productreviews/internal/infra/persistence/es"
	"go.uber.org/zap"
)

// Service 把抓取结果写入搜索索引,可选地附带向量
type Service interface {
	// Ingest 返回成功写入的文档数
	Ingest(ctx context.Context, records []model.ProductRecord) (int, error)
}

type service struct {
	typedEsClient es.TypedEsClient
	embedder      embedding.Embedder
	timeout       time.Duration
	now           func() time.Time
	logger        *zap.Logger
}

// InitService embedder 为 nil 时只写入文本字段
func InitService(typedEsClient es.TypedEsClient, embedder embedding.Embedder, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		typedEsClient: typedEsClient,
		embedder:      embedder,
		timeout:       20 * time.Second,
		now:           time.Now,
		logger:        logger.Named("ingest"),
	}
}

func (s *service) Ingest(ctx context.Context, records []model.ProductRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	scrapedAt := s.now().UTC()
	docs := make([]*model.ProductDoc, 0, len(records))
	for _, rec := range records {
		docs = append(docs, model.NewProductDoc(rec, scrapedAt))
	}

	if s.embedder != nil {
		s.embeddingDocs(ctx, docs)
	}

	if err := s.typedEsClient.CreateIndexWithMapping(ctx); err != nil {
		return 0, fmt.Errorf("准备索引失败: %w", err)
	}
	n, err := s.typedEsClient.BulkIndexDocsWithID(ctx, docs)
	if err != nil {
		return n, fmt.Errorf("写入索引失败: %w", err)
	}
	s.logger.Info("已写入索引", zap.String("index", s.typedEsClient.Index()), zap.Int("docs", n))
	return n, nil
}

// embeddingDocs 分批生成向量,某一批失败时该批文档不带向量
func (s *service) embeddingDocs(ctx context.Context, docs []*model.ProductDoc) {
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	batchSize := max(s.embedder.BatchSize(), 1)
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))
		texts := make([]string, 0, end-i)
		for _, doc := range docs[i:end] {
			texts = append(texts, doc.GetEmbeddingString())
		}
		vectors, err := s.embedder.Embed(reqCtx, texts)
		if err != nil {
			s.logger.Warn("生成向量失败", zap.Int("from", i), zap.Int("to", end), zap.Error(err))
			continue
		}
		if len(vectors) != len(texts) {
			s.logger.Warn("向量数量不匹配", zap.Int("want", len(texts)), zap.Int("got", len(vectors)))
			continue
		}
		for j, v := range vectors {
			docs[i+j].SetEmbedding(v)
		}
	}
}
