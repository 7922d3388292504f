package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	createErr error
	bulkErr   error
	created   int
	docs      []*model.ProductDoc
}

func (f *fakeIndex) Index() string { return "product_reviews" }

func (f *fakeIndex) CreateIndexWithMapping(context.Context) error {
	f.created++
	return f.createErr
}

func (f *fakeIndex) BulkIndexDocsWithID(_ context.Context, docs []*model.ProductDoc) (int, error) {
	if f.bulkErr != nil {
		return 0, f.bulkErr
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

func (f *fakeIndex) CountDocs(context.Context) (int64, error) {
	return int64(len(f.docs)), nil
}

type fakeEmbedder struct {
	batchSize int
	batches   [][]string
	failBatch int
}

func (f *fakeEmbedder) BatchSize() int { return f.batchSize }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.failBatch > 0 && len(f.batches) == f.failBatch {
		return nil, errors.New("ollama unavailable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return out, nil
}

func records(n int) []model.ProductRecord {
	out := make([]model.ProductRecord, n)
	for i := range out {
		out[i] = model.ProductRecord{
			ProductID:    fmt.Sprintf("id%d", i),
			Title:        fmt.Sprintf("Mouse %d", i),
			Price:        "$10",
			ReviewSample: "Great grip and very smooth tracking || Battery lasts for months, really happy",
		}
	}
	return out
}

func TestIngestWithEmbeddings(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{batchSize: 2}
	svc := InitService(idx, emb, nil)

	n, err := svc.Ingest(context.Background(), records(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, idx.created)

	require.Len(t, emb.batches, 2)
	assert.Len(t, emb.batches[0], 2)
	assert.Len(t, emb.batches[1], 1)

	require.Len(t, idx.docs, 3)
	for _, doc := range idx.docs {
		assert.NotEmpty(t, doc.GetEmbedding())
		assert.Len(t, doc.Reviews, 2)
	}
}

func TestIngestEmbeddingFailureStillIndexes(t *testing.T) {
	idx := &fakeIndex{}
	emb := &fakeEmbedder{batchSize: 2, failBatch: 1}
	svc := InitService(idx, emb, nil)

	n, err := svc.Ingest(context.Background(), records(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Empty(t, idx.docs[0].GetEmbedding())
	assert.Empty(t, idx.docs[1].GetEmbedding())
	assert.NotEmpty(t, idx.docs[2].GetEmbedding())
}

func TestIngestWithoutEmbedder(t *testing.T) {
	idx := &fakeIndex{}
	svc := InitService(idx, nil, nil)

	n, err := svc.Ingest(context.Background(), records(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, idx.docs[0].GetEmbedding())
}

func TestIngestErrors(t *testing.T) {
	svc := InitService(&fakeIndex{createErr: errors.New("cluster red")}, nil, nil)
	_, err := svc.Ingest(context.Background(), records(1))
	assert.ErrorContains(t, err, "cluster red")

	svc = InitService(&fakeIndex{bulkErr: errors.New("rejected")}, nil, nil)
	_, err = svc.Ingest(context.Background(), records(1))
	assert.ErrorContains(t, err, "rejected")
}

func TestIngestEmpty(t *testing.T) {
	idx := &fakeIndex{}
	n, err := InitService(idx, nil, nil).Ingest(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, idx.created)
}
