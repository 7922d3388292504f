package listing

import (
	"fmt"

	"github.com/LouYuanbo1/productreviews/internal/domain/model"
)

const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
)

// FieldError 商品缺少必填字段,该商品被跳过
type FieldError struct {
	Field string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("缺少必填字段: %s", e.Field)
}

// ItemOutcome 搜索结果中一个商品的处理结果
type ItemOutcome struct {
	// Index 商品在页面中的位置,从0开始
	Index  int
	Record *model.ProductRecord
	// Reason 跳过原因,Record 非空时为 nil
	Reason error
}

func (o ItemOutcome) Skipped() bool {
	return o.Record == nil
}

func (o ItemOutcome) label() string {
	if o.Skipped() {
		return OutcomeSkipped
	}
	return OutcomeOK
}

// Result 按页面顺序保存所有商品的处理结果
type Result struct {
	Query    string
	URL      string
	Outcomes []ItemOutcome
}

// Records 成功的商品记录,保持页面顺序
func (r *Result) Records() []model.ProductRecord {
	records := make([]model.ProductRecord, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if !o.Skipped() {
			records = append(records, *o.Record)
		}
	}
	return records
}

func (r *Result) Skipped() []ItemOutcome {
	var skipped []ItemOutcome
	for _, o := range r.Outcomes {
		if o.Skipped() {
			skipped = append(skipped, o)
		}
	}
	return skipped
}
