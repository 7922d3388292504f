package param

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/selector"
	"github.com/LouYuanbo1/productreviews/internal/infra/crawler/types"
)

const SiteFlipkart = "flipkart"

// SiteProfile 一个电商站点的搜索入口与页面结构
// 每个字段的选择器按优先级排列,页面改版时在前面追加新的选择器即可
type SiteProfile struct {
	Name       string `json:"name"`
	Origin     string `json:"origin"`
	SearchPath string `json:"search_path"`
	QueryParam string `json:"query_param"`

	Containers  selector.Strategies `json:"containers"`
	Title       selector.Strategies `json:"title"`
	Price       selector.Strategies `json:"price"`
	Rating      selector.Strategies `json:"rating"`
	ReviewCount selector.Strategies `json:"review_count"`
	Link        selector.Strategies `json:"link"`

	Reviews selector.Strategies `json:"reviews"`
	// Popups 登录弹窗等遮挡层的关闭按钮,任意一个命中即可
	Popups []types.Matcher `json:"popups"`
	// Boilerplate 评论文本中需要去掉的固定字样
	Boilerplate []string `json:"boilerplate"`
}

// SearchURL 查询词中的空格编码为 "+"
func (sp SiteProfile) SearchURL(query string) string {
	return sp.Origin + sp.SearchPath + "?" + sp.QueryParam + "=" + url.QueryEscape(strings.TrimSpace(query))
}

func Flipkart() SiteProfile {
	return SiteProfile{
		Name:        SiteFlipkart,
		Origin:      "https://www.flipkart.com",
		SearchPath:  "/search",
		QueryParam:  "q",
		Containers:  selector.Strategies{"div.jIjQ8S", "div[data-id]"},
		Title:       selector.Strategies{"div.RG5Slk"},
		Price:       selector.Strategies{"div.hZ3P6w.DeU9vF"},
		Rating:      selector.Strategies{"div.MKiFS6"},
		ReviewCount: selector.Strategies{"span.o2SIOJ"},
		Link:        selector.Strategies{"a[href*='/p/']"},
		Reviews:     selector.Strategies{"div.G4PxIA", "div._27M-vq", "div.col.EPCmJX"},
		Popups: []types.Matcher{
			{Selector: "button", Text: "✕"},
			{Selector: "span", Text: "✕"},
		},
		Boilerplate: []string{"READ MORE"},
	}
}

// ProfileFor 按名称查找内置站点
func ProfileFor(name string) (SiteProfile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SiteFlipkart, "":
		return Flipkart(), nil
	default:
		return SiteProfile{}, fmt.Errorf("不支持的站点: %s", name)
	}
}
