package render

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	Priority string `xml:"priority,omitempty"`
}

// Sitemap 生成 sitemap.xml。
//
// 规则：
// - pages 是站点相对路径；"index.html" 映射到站点根 "<base>/"
// - 去空白、去重、保持输入顺序；不输出 lastmod（保证相同输入逐字节相同）
// - 首页 priority=1.0，其余 0.8
func Sitemap(baseURL string, pages []string) ([]byte, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base_url 无效：%q", baseURL)
	}

	set := urlset{XMLNS: sitemapNS}
	for _, p := range normList(pages) {
		p = strings.TrimPrefix(p, "/")
		u := sitemapURL{Priority: "0.8"}
		if p == "index.html" || p == "" {
			u.Loc = base.JoinPath("/").String()
			u.Priority = "1.0"
		} else {
			u.Loc = base.JoinPath(p).String()
		}
		set.URLs = append(set.URLs, u)
	}

	b, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(b, '\n')...), nil
}

func normList(in []string) []string {
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
