package naming

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// 有序名称：数字序号 + 可选字母后缀 + '-' + slug，例如 "1-brands"、"2a-elle.jpg"。
// 注意：这里要求 '-' 至少出现一次，避免把 "2024.jpg" 这种纯数字文件名误判为序号。
var orderedRE = regexp.MustCompile(`^([0-9]+)([a-z]?)-(.*)$`)

// Ordered 是解析后的有序名称。
type Ordered struct {
	Order    int
	HasOrder bool
	Suffix   string // 序号后的字母（"2a" 中的 "a"）
	Slug     string // 去掉序号与扩展名后的剩余部分
}

// Parse 解析目录名或文件名（文件名会先去扩展名）。
func Parse(name string) Ordered {
	name = strings.TrimSpace(name)
	stem := strings.TrimSuffix(name, path.Ext(name))
	m := orderedRE.FindStringSubmatch(stem)
	if m == nil {
		return Ordered{Slug: stem}
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return Ordered{Slug: stem}
	}
	return Ordered{Order: n, HasOrder: true, Suffix: m[2], Slug: m[3]}
}

// Title 把 "4-leaky-people" 转为 "Leaky People"。
func Title(name string) string {
	words := splitWords(Parse(name).Slug)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Upper 把 "1-pivotpoint.jpg" 转为 "PIVOTPOINT"（轮播标题）。
func Upper(name string) string {
	return strings.ToUpper(strings.Join(splitWords(Parse(name).Slug), " "))
}

// Slug 返回去掉序号后的小写标识，例如 "1-Brands" -> "brands"。
func Slug(name string) string {
	return strings.ToLower(strings.Join(splitWords(Parse(name).Slug), "-"))
}

// Less 是自然序比较：
// - 有序号者排在无序号者之前
// - 序号按数值比较；相同序号按后缀、再按原串字典序
func Less(a, b string) bool {
	pa, pb := Parse(a), Parse(b)
	if pa.HasOrder != pb.HasOrder {
		return pa.HasOrder
	}
	if pa.HasOrder {
		if pa.Order != pb.Order {
			return pa.Order < pb.Order
		}
		if pa.Suffix != pb.Suffix {
			return pa.Suffix < pb.Suffix
		}
	}
	return a < b
}

// LessPath 按路径分段逐段做自然序比较（"1-a/10-x.jpg" 在 "1-a/2-y.jpg" 之后）。
func LessPath(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		return Less(as[i], bs[i])
	}
	return len(as) < len(bs)
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
}
