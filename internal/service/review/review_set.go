package review

import "github.com/LouYuanbo1/productreviews/internal/domain/model"

// reviewSet 单次抓取内的评论累加器,按首次出现的顺序保存去重后的评论
type reviewSet struct {
	limit int
	seen  map[string]struct{}
	items []string
}

func newReviewSet(limit int) *reviewSet {
	return &reviewSet{
		limit: limit,
		seen:  make(map[string]struct{}, limit),
		items: make([]string, 0, limit),
	}
}

// Add 文本需已归一化,过短、重复或已满时拒绝
func (rs *reviewSet) Add(text string) bool {
	if rs.Full() || !model.IsSubstantialReview(text) {
		return false
	}
	if _, ok := rs.seen[text]; ok {
		return false
	}
	rs.seen[text] = struct{}{}
	rs.items = append(rs.items, text)
	return true
}

func (rs *reviewSet) Full() bool {
	return len(rs.items) >= rs.limit
}

func (rs *reviewSet) Items() []string {
	if len(rs.items) == 0 {
		return nil
	}
	return rs.items
}
