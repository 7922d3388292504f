package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esutil"
	"go.uber.org/zap"
)

type Option func(*elasticsearch.Config)

// WithTransport 替换默认 Transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *elasticsearch.Config) { c.Transport = rt }
}

type typedEsClient struct {
	client *elasticsearch.TypedClient
	index  string
	logger *zap.Logger
}

func InitTypedEsClient(cfg config.ElasticsearchConfig, logger *zap.Logger, opts ...Option) (TypedEsClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	esCfg := elasticsearch.Config{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Addresses: []string{cfg.Address},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			// 跳过TLS验证(仅在开发环境中使用)
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	for _, opt := range opts {
		opt(&esCfg)
	}
	typedClient, err := elasticsearch.NewTypedClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化Elasticsearch客户端失败: %w", err)
	}
	return &typedEsClient{
		client: typedClient,
		index:  cfg.Index,
		logger: logger.Named("es"),
	}, nil
}

func (tec *typedEsClient) Index() string {
	return tec.index
}

func (tec *typedEsClient) CreateIndexWithMapping(ctx context.Context) error {
	exists, err := tec.client.Indices.Exists(tec.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	if exists {
		tec.logger.Debug("索引已存在,跳过创建", zap.String("index", tec.index))
		return nil
	}
	if _, err := tec.client.Indices.Create(tec.index).Mappings(model.ProductTypeMapping()).Do(ctx); err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}
	tec.logger.Info("已创建索引", zap.String("index", tec.index))
	return nil
}

func (tec *typedEsClient) BulkIndexDocsWithID(ctx context.Context, docs []*model.ProductDoc) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Index:         tec.index,
		Client:        tec.client,
		NumWorkers:    2,
		FlushBytes:    5 * 1024 * 1024,
		FlushInterval: 30 * time.Second,
		OnError: func(ctx context.Context, err error) {
			tec.logger.Error("批量写入出错", zap.Error(err))
		},
	})
	if err != nil {
		return 0, fmt.Errorf("创建批量写入器失败: %w", err)
	}

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("序列化文档失败: %w", err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: doc.GetID(),
			Body:       bytes.NewReader(data),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					tec.logger.Warn("文档写入失败", zap.String("id", item.DocumentID), zap.Error(err))
				} else {
					tec.logger.Warn("文档写入失败", zap.String("id", item.DocumentID), zap.String("reason", res.Error.Reason))
				}
			},
		})
		if err != nil {
			_ = bi.Close(ctx)
			return 0, fmt.Errorf("添加文档失败: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("关闭批量写入器失败: %w", err)
	}

	stats := bi.Stats()
	tec.logger.Info("批量写入完成",
		zap.Uint64("indexed", stats.NumIndexed),
		zap.Uint64("failed", stats.NumFailed),
	)
	if stats.NumFailed > 0 {
		return int(stats.NumIndexed), fmt.Errorf("%d 个文档写入失败", stats.NumFailed)
	}
	return int(stats.NumIndexed), nil
}

func (tec *typedEsClient) CountDocs(ctx context.Context) (int64, error) {
	resp, err := tec.client.Count().Index(tec.index).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("统计文档数量失败: %w", err)
	}
	return resp.Count, nil
}
