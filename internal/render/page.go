// Package render 把布局结果渲染为静态 HTML 页面与 sitemap。
//
// 输出必须是确定性的：相同输入逐字节相同（尺寸固定两位小数，集合按给定顺序输出），
// 这样 build 才能用“内容是否变化”判断页面是否需要重写。
package render

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/naming"
)

// Page 是一个项目页的渲染输入。
type Page struct {
	SiteName string
	Subtitle string

	Project domain.ProjectInfo
	Title   string
	// Nav 是导航中列出的全部项目（当前项目高亮）。
	Nav      []domain.ProjectInfo
	Sections []Section
	Rules    MediaRules
}

// Section 是一个分区：已完成布局的行 + 展示参数。
type Section struct {
	Key         string
	Title       string
	Description string
	Rows        []domain.LayoutRow
	Gap         float64
	// VisibleRows <= 0 表示全部可见。
	VisibleRows int
	// CustomLayout 为 true 时，第一个视频的海报使用大图缩略图。
	CustomLayout bool
}

// MediaRules 按源路径子串匹配视频的播放方式。
type MediaRules struct {
	Autoplay         []string // 匹配的视频自动播放，并按动画视频渲染
	InvertedControls []string // 匹配的视频声音按钮使用反色
}

// ProjectPage 渲染完整项目页到 w。
func ProjectPage(w io.Writer, p Page) error {
	return projectPageTemplate.Execute(w, newPageView(p))
}

// ProjectPageBytes 是 ProjectPage 的便捷形式。
func ProjectPageBytes(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := ProjectPage(&buf, p); err != nil {
		return nil, fmt.Errorf("渲染 %s 失败：%w", p.Project.PageFile(), err)
	}
	return buf.Bytes(), nil
}

type pageView struct {
	SiteName      string
	SiteUpper     string
	Subtitle      string
	SubtitleWords []string
	Title         string
	Category      string
	Animation     bool
	Nav           []navLink
	Sections      []sectionView
	Lightbox      []domain.MediaItem
}

type navLink struct {
	Href     string
	Label    string
	Category string
	Active   bool
}

type sectionView struct {
	Key         string
	Title       string
	Description string
	Gap         string
	Rows        []rowView
	SeeMore     bool
}

type rowView struct {
	Hidden bool
	Cells  []cellView
}

type cellView struct {
	Index       int
	IsVideo     bool
	Src         string
	Thumb       string // 图片的缩略图 / 视频的海报
	VideoType   string
	Width       string
	Height      string
	MarginRight string
	Description string

	AnimationVideo bool
	Autoplay       bool
	Overlay        bool
	SoundButton    bool
	Inverted       bool
}

func newPageView(p Page) pageView {
	v := pageView{
		SiteName:      p.SiteName,
		SiteUpper:     strings.ToUpper(p.SiteName),
		Subtitle:      p.Subtitle,
		SubtitleWords: strings.Fields(strings.ToUpper(p.Subtitle)),
		Title:         p.Title,
		Category:      p.Project.Category,
		Animation:     p.Project.Animation,
		Lightbox:      []domain.MediaItem{},
	}
	for _, n := range p.Nav {
		v.Nav = append(v.Nav, navLink{
			Href:     n.PageFile(),
			Label:    naming.Title(n.Category),
			Category: n.Category,
			Active:   n.ID == p.Project.ID,
		})
	}
	for _, s := range p.Sections {
		v.Sections = append(v.Sections, newSectionView(s, p))
		for _, r := range s.Rows {
			for _, pl := range r.Items {
				v.Lightbox = append(v.Lightbox, pl.Item)
			}
		}
	}
	return v
}

func newSectionView(s Section, p Page) sectionView {
	sv := sectionView{
		Key:         s.Key,
		Title:       s.Title,
		Description: s.Description,
		Gap:         num(s.Gap),
	}

	visible := s.VisibleRows
	if visible <= 0 || visible > len(s.Rows) {
		visible = len(s.Rows)
	}
	sv.SeeMore = len(s.Rows) > visible

	large := lastThumbable(s.Rows)
	first := true
	for ri, r := range s.Rows {
		rv := rowView{Hidden: ri >= visible}
		for ci, pl := range r.Items {
			c := newCell(pl, p, s)
			if ci < len(r.Items)-1 {
				c.MarginRight = num(s.Gap)
			} else {
				c.MarginRight = "0"
			}
			switch {
			case c.IsVideo:
				c.Thumb = domain.ThumbPath(pl.Item.SourcePath, first && s.CustomLayout)
			case domain.Thumbable(path.Ext(pl.Item.SourcePath)):
				c.Thumb = domain.ThumbPath(pl.Item.SourcePath, pl.Item.SourcePath == large)
			default:
				c.Thumb = pl.Item.SourcePath
			}
			first = false
			rv.Cells = append(rv.Cells, c)
		}
		sv.Rows = append(sv.Rows, rv)
	}
	return sv
}

func newCell(pl domain.Placement, p Page, s Section) cellView {
	it := pl.Item
	src := it.SourcePath
	c := cellView{
		Index:       it.DisplayIndex,
		IsVideo:     it.IsVideo,
		Src:         src,
		Width:       num(pl.RenderWidth),
		Height:      num(pl.RenderHeight),
		Description: it.Description,
		Overlay:     true,
	}
	if !it.IsVideo {
		return c
	}

	c.VideoType = videoType(src)
	c.Autoplay = matchAny(src, p.Rules.Autoplay)
	c.AnimationVideo = p.Project.Animation || c.Autoplay
	if c.AnimationVideo {
		c.Overlay = false
		c.SoundButton = true
		c.Inverted = matchAny(src, p.Rules.InvertedControls)
	}
	return c
}

// lastThumbable 返回分区中最后一张会生成 _thumb1000.jpg 的图片（与缩略图规划规则一致）。
func lastThumbable(rows []domain.LayoutRow) string {
	last := ""
	for _, r := range rows {
		for _, pl := range r.Items {
			if !pl.Item.IsVideo && domain.Thumbable(path.Ext(pl.Item.SourcePath)) {
				last = pl.Item.SourcePath
			}
		}
	}
	return last
}

func matchAny(src string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(src, p) {
			return true
		}
	}
	return false
}

func videoType(src string) string {
	switch strings.ToLower(path.Ext(src)) {
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return "video/mp4"
	}
}

// num 固定两位小数，保证输出确定性。
func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
