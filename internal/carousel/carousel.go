// Package carousel 生成首页移动端轮播，并写回 index.html 的轮播容器。
package carousel

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/naming"
)

// ContainerClass 是 index.html 中轮播容器的 class。
const ContainerClass = "mobile-carousels-container"

var (
	// ErrNoContainer 表示 index.html 中找不到轮播容器。
	ErrNoContainer = errors.New("index.html 中找不到 ." + ContainerClass)
	// ErrMultipleContainers 表示容器不唯一（无法确定写回位置）。
	ErrMultipleContainers = errors.New("index.html 中存在多个 ." + ContainerClass)
)

// Carousel 是一个分类的轮播。
type Carousel struct {
	Key    string // 目录名，例如 "1-brands"
	Name   string // 展示名，例如 "BRANDS"
	ID     string // data-category，例如 "brands"
	Slides []Slide
}

type Slide struct {
	Title string
	Alt   string
	Src   string
}

// Group 把封面按分类聚合（covers 需已按分类、文件名自然序排序，ScanCovers 的输出即可）。
// names 提供分类的展示名；缺失时使用 Upper(目录名)。
func Group(covers []domain.Cover, names map[string]string) []Carousel {
	out := make([]Carousel, 0, 8)
	idx := map[string]int{}
	for _, c := range covers {
		i, ok := idx[c.Category]
		if !ok {
			name := strings.TrimSpace(names[c.Category])
			if name == "" {
				name = naming.Upper(c.Category)
			}
			i = len(out)
			idx[c.Category] = i
			out = append(out, Carousel{
				Key:  c.Category,
				Name: name,
				ID:   strings.ReplaceAll(strings.ToLower(name), " ", "-"),
			})
		}
		title := naming.Upper(c.Name)
		out[i].Slides = append(out[i].Slides, Slide{
			Title: title,
			Alt:   naming.Title(c.Name),
			Src:   c.RelPath,
		})
	}
	return out
}

// Build 渲染全部轮播为 HTML 片段。
func Build(carousels []Carousel) ([]byte, error) {
	var buf bytes.Buffer
	if err := fragmentTemplate.Execute(&buf, carousels); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Splice 用 fragment 替换 index.html 中 .mobile-carousels-container 的内容。
//
// 规则：
// - 容器必须唯一；找不到返回 ErrNoContainer，多于一个返回 ErrMultipleContainers
// - 容器之外的字节原样保留（不重新序列化整个文档）
// - 相同 fragment 重复执行结果不变
func Splice(index, fragment []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(index))
	if err != nil {
		return nil, err
	}
	switch doc.Find("." + ContainerClass).Length() {
	case 0:
		return nil, ErrNoContainer
	case 1:
	default:
		return nil, ErrMultipleContainers
	}

	start, end, err := innerRange(index)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(index)+len(fragment))
	out = append(out, index[:start]...)
	out = append(out, '\n')
	if f := bytes.Trim(fragment, "\n"); len(f) > 0 {
		out = append(out, f...)
		out = append(out, '\n')
	}
	out = append(out, trailingIndent(index[start:end])...)
	out = append(out, index[end:]...)
	return out, nil
}

// innerRange 返回容器内部内容在原始字节中的 [start, end)。
// 只统计 div 的开闭来确定容器边界。
func innerRange(b []byte) (start, end int, err error) {
	z := html.NewTokenizer(bytes.NewReader(b))
	offset, depth := 0, 0
	for {
		tt := z.Next()
		raw := len(z.Raw())
		switch tt {
		case html.ErrorToken:
			return 0, 0, fmt.Errorf("轮播容器未闭合：%w", ErrNoContainer)
		case html.StartTagToken:
			tok := z.Token()
			if tok.Data != "div" {
				break
			}
			if depth > 0 {
				depth++
			} else if hasClass(tok, ContainerClass) {
				depth = 1
				start = offset + raw
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if depth > 0 && string(name) == "div" {
				depth--
				if depth == 0 {
					return start, offset, nil
				}
			}
		}
		offset += raw
	}
}

func hasClass(tok html.Token, class string) bool {
	for _, a := range tok.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// trailingIndent 返回旧内容最后一个换行之后的空白（闭合标签前的缩进）。
func trailingIndent(inner []byte) []byte {
	i := bytes.LastIndexByte(inner, '\n')
	if i < 0 {
		return nil
	}
	tail := inner[i+1:]
	if len(bytes.TrimLeft(tail, " \t")) != 0 {
		return nil
	}
	return tail
}

var fragmentTemplate = template.Must(template.New("carousels").Parse(`
{{- range .}}
    <div class="mobile-carousel" data-category="{{.ID}}">
        <div class="carousel-track">
{{- range .Slides}}
            <div class="carousel-slide" data-title="{{.Title}}">
                <img src="{{.Src}}" alt="{{.Alt}}">
            </div>
{{- end}}
        </div>
        <div class="carousel-overlay">
            <div class="carousel-category">{{.Name}}</div>
            <div class="carousel-title" id="carousel-section-title-{{.ID}}">{{(index .Slides 0).Title}}</div>
        </div>
    </div>
{{end}}`))
