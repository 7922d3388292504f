package model

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MinReviewLength 评论文本必须超过该长度(按字符计)
const MinReviewLength = 20

var (
	nonDigitRe  = regexp.MustCompile(`\D+`)
	productIDRe = regexp.MustCompile(`/p/([^/?#]+)`)
)

// ParseReviewCount 从 "1,234 Reviews" 这类文本中去掉所有非数字字符后解析
// 空文本返回0,超出 int 范围时返回 math.MaxInt
func ParseReviewCount(text string) int {
	digits := nonDigitRe.ReplaceAllString(text, "")
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt
	}
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ExtractProductID 取商品链接中 /p/<id> 段
func ExtractProductID(href string) string {
	m := productIDRe.FindStringSubmatch(href)
	if m == nil || m[1] == "" {
		return NotAvailable
	}
	return m[1]
}

// IsAbsoluteURL 只接受带 host 的 http/https 地址
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResolveURL 将相对链接拼接到站点 origin 上
func ResolveURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if IsAbsoluteURL(href) {
		return href
	}
	base, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// ReviewNormalizer 去掉 "READ MORE" 之类的标记(不区分大小写)并压缩空白
// 标记在创建时编译一次
type ReviewNormalizer struct {
	markers *regexp.Regexp
}

func NewReviewNormalizer(markers []string) *ReviewNormalizer {
	quoted := make([]string, 0, len(markers))
	for _, marker := range markers {
		if marker != "" {
			quoted = append(quoted, regexp.QuoteMeta(marker))
		}
	}
	n := &ReviewNormalizer{}
	if len(quoted) > 0 {
		n.markers = regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
	}
	return n
}

func (n *ReviewNormalizer) Normalize(text string) string {
	if n != nil && n.markers != nil {
		text = n.markers.ReplaceAllString(text, " ")
	}
	return strings.Join(strings.Fields(text), " ")
}

// IsSubstantialReview 过滤掉过短的片段
func IsSubstantialReview(text string) bool {
	return utf8.RuneCountInString(text) > MinReviewLength
}

// JoinReviews 将评论合并为单个字段,为空时返回占位文本
func JoinReviews(reviews []string) string {
	if len(reviews) == 0 {
		return NoReviewsFound
	}
	return strings.Join(reviews, ReviewSeparator)
}
