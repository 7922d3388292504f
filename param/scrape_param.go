package param

import (
	"errors"
	"strings"
)

// Scrape 一次抓取任务的输入
type Scrape struct {
	Query       string `json:"query"`
	MaxProducts int    `json:"max_products"`
	ReviewCount int    `json:"review_count"`
	// Filename 输出文件名,只取文件名部分,目录由配置决定
	Filename string `json:"filename"`
}

func (s *Scrape) Validate() error {
	if strings.TrimSpace(s.Query) == "" {
		return errors.New("查询词不能为空")
	}
	if s.MaxProducts <= 0 {
		return errors.New("商品数量必须大于0")
	}
	if s.ReviewCount < 0 {
		return errors.New("评论数量不能为负数")
	}
	if strings.TrimSpace(s.Filename) == "" {
		return errors.New("输出文件名不能为空")
	}
	return nil
}
