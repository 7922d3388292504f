package model

import "strconv"

const (
	// NotAvailable 商品链接缺失或无法解析时使用的占位ID
	NotAvailable = "N/A"
	// NoReviewsFound 评论抓取失败或为空时的占位文本
	NoReviewsFound = "No reviews found"
	// ReviewSeparator 多条评论合并为一个字段时的分隔符
	ReviewSeparator = " || "
)

// Columns 持久化输出的固定列顺序
var Columns = []string{
	"product_id",
	"product_title",
	"rating",
	"total_reviews",
	"price",
	"top_reviews",
}

// ProductRecord 搜索结果页中的一个商品及其评论样本
type ProductRecord struct {
	ProductID    string `json:"product_id"`
	Title        string `json:"product_title"`
	Rating       string `json:"rating"`
	TotalReviews int    `json:"total_reviews"`
	Price        string `json:"price"`
	ReviewSample string `json:"top_reviews"`
	// URL 商品详情页地址,不参与持久化
	URL string `json:"-"`
}

// Row 按 Columns 的顺序返回一行
func (p ProductRecord) Row() []string {
	return []string{
		p.ProductID,
		p.Title,
		p.Rating,
		strconv.Itoa(p.TotalReviews),
		p.Price,
		p.ReviewSample,
	}
}
