package pipeline

import (
	"context"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/LouYuanbo1/productreviews/internal/infra/persistence/pgstore"
	"github.com/LouYuanbo1/productreviews/internal/service/ingest"
)

type ingestSink struct {
	svc ingest.Service
}

// IngestSink 写入 Elasticsearch 索引
func IngestSink(svc ingest.Service) RecordSink {
	return ingestSink{svc: svc}
}

func (is ingestSink) Name() string { return "elasticsearch" }

func (is ingestSink) Save(ctx context.Context, records []model.ProductRecord) (int, error) {
	return is.svc.Ingest(ctx, records)
}

type storeSink struct {
	store pgstore.Store
}

// StoreSink 写入 PostgreSQL
func StoreSink(store pgstore.Store) RecordSink {
	return storeSink{store: store}
}

func (ss storeSink) Name() string { return "postgres" }

func (ss storeSink) Save(ctx context.Context, records []model.ProductRecord) (int, error) {
	return ss.store.Save(ctx, records)
}
