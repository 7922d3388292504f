package es

import (
	"context"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
)

// TypedEsClient 商品索引的读写操作
type TypedEsClient interface {
	Index() string
	CreateIndexWithMapping(ctx context.Context) error
	// BulkIndexDocsWithID 以文档ID写入,重复抓取会覆盖旧文档,返回成功写入的数量
	BulkIndexDocsWithID(ctx context.Context, docs []*model.ProductDoc) (int, error)
	CountDocs(ctx context.Context) (int64, error)
}
