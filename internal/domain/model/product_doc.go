package model

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
)

// ProductDoc 写入 Elasticsearch 的商品文档
type ProductDoc struct {
	ID           string    `json:"id"`
	Title        string    `json:"product_title"`
	Rating       string    `json:"rating"`
	TotalReviews int       `json:"total_reviews"`
	Price        string    `json:"price"`
	Reviews      []string  `json:"reviews"`
	URL          string    `json:"url,omitempty"`
	ScrapedAt    time.Time `json:"scraped_at"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// NewProductDoc 将抓取记录转换为索引文档
// 没有商品ID时使用标题与价格的哈希,保证重复抓取时覆盖同一文档
func NewProductDoc(rec ProductRecord, scrapedAt time.Time) *ProductDoc {
	id := rec.ProductID
	if id == "" || id == NotAvailable {
		sum := sha1.Sum([]byte(rec.Title + "|" + rec.Price))
		id = hex.EncodeToString(sum[:])
	}
	var reviews []string
	if rec.ReviewSample != "" && rec.ReviewSample != NoReviewsFound {
		reviews = strings.Split(rec.ReviewSample, ReviewSeparator)
	}
	return &ProductDoc{
		ID:           id,
		Title:        rec.Title,
		Rating:       rec.Rating,
		TotalReviews: rec.TotalReviews,
		Price:        rec.Price,
		Reviews:      reviews,
		URL:          rec.URL,
		ScrapedAt:    scrapedAt,
	}
}

func (d *ProductDoc) GetID() string {
	return d.ID
}

// GetEmbeddingString 用于生成向量的文本:标题加评论
func (d *ProductDoc) GetEmbeddingString() string {
	if len(d.Reviews) == 0 {
		return d.Title
	}
	return d.Title + "\n" + strings.Join(d.Reviews, "\n")
}

func (d *ProductDoc) SetEmbedding(embedding []float32) {
	d.Embedding = embedding
}

func (d *ProductDoc) GetEmbedding() []float32 {
	return d.Embedding
}

// ProductTypeMapping 商品索引的字段映射
func ProductTypeMapping() *types.TypeMapping {
	return &types.TypeMapping{
		Properties: map[string]types.Property{
			"id":            types.NewKeywordProperty(),
			"product_title": types.NewTextProperty(),
			"rating":        types.NewKeywordProperty(),
			"total_reviews": types.NewIntegerNumberProperty(),
			"price":         types.NewKeywordProperty(),
			"reviews":       types.NewTextProperty(),
			"url":           types.NewKeywordProperty(),
			"scraped_at":    types.NewDateProperty(),
			"embedding":     types.NewDenseVectorProperty(),
		},
	}
}
