package types

// Matcher 页面元素匹配器: CSS 选择器加可选的文本片段
// Text 为空时只按选择器匹配
type Matcher struct {
	Selector string `json:"selector" mapstructure:"selector"`
	Text     string `json:"text" mapstructure:"text"`
}
