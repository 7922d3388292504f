// Package selector 在 goquery 文档上执行按优先级排列的选择器策略
package selector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Strategies 同一字段在不同页面版本下的候选选择器,越靠前优先级越高
type Strategies []string

func (s Strategies) group() string {
	parts := make([]string, 0, len(s))
	for _, sel := range s {
		if sel = strings.TrimSpace(sel); sel != "" {
			parts = append(parts, sel)
		}
	}
	return strings.Join(parts, ", ")
}

// Parse 将页面HTML解析为文档
func Parse(page string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(page))
}

// FindAll 所有策略合并成一次查询,结果按文档顺序排列,最多保留 limit 个
// limit <= 0 表示不限制
func FindAll(root *goquery.Selection, strategies Strategies, limit int) *goquery.Selection {
	group := strategies.group()
	if group == "" {
		return root.Slice(0, 0)
	}
	sel := root.Find(group)
	if limit > 0 && sel.Length() > limit {
		sel = sel.Slice(0, limit)
	}
	return sel
}

// First 依次尝试每个策略,返回第一个有匹配的元素
func First(root *goquery.Selection, strategies Strategies) (*goquery.Selection, bool) {
	for _, s := range strategies {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if sel := root.Find(s).First(); sel.Length() > 0 {
			return sel, true
		}
	}
	return nil, false
}

// FirstText 第一个匹配元素的文本
func FirstText(root *goquery.Selection, strategies Strategies) (string, bool) {
	sel, ok := First(root, strategies)
	if !ok {
		return "", false
	}
	return Text(sel, " "), true
}

// FirstAttr 第一个带有 attr 属性的匹配元素的属性值
func FirstAttr(root *goquery.Selection, strategies Strategies, attr string) (string, bool) {
	for _, s := range strategies {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		var (
			val   string
			found bool
		)
		root.Find(s).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			val, found = el.Attr(attr)
			return !found
		})
		if found {
			return strings.TrimSpace(val), true
		}
	}
	return "", false
}

// Text 收集元素下所有文本节点,逐段去掉首尾空白后用 sep 连接
// 跳过 script/style 中的内容
func Text(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
