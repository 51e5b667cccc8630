package config

import (
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/layout"
)

// SectionSettings 是某个分区最终生效的布局参数。
type SectionSettings struct {
	Params  layout.Params
	Options layout.SectionOptions
	// VisibleRows <= 0 表示全部可见。
	VisibleRows  int
	CustomLayout bool
}

// ResolveSection 按“全局默认 → title_overrides[title] → sections[<project>/<section>]”的顺序叠加。
// sections 的 project 部分既可以写 gallery 目录名，也可以写项目 id；两者都配置时 id 优先。
func (c EffectiveConfig) ResolveSection(p domain.ProjectInfo, sectionKey, title string) SectionSettings {
	s := SectionSettings{
		Params: layout.Params{
			ContainerWidth:  c.Layout.ContainerWidth,
			TargetRowHeight: c.Layout.TargetRowHeight,
			Gap:             c.Layout.Gap,
			MinItemsPerRow:  c.Layout.MinItemsPerRow,
		},
		VisibleRows: c.Layout.VisibleRows,
	}

	if o, ok := c.TitleOverrides[title]; ok && title != "" {
		s.apply(o)
	}
	if o, ok := c.Sections[p.GalleryKey+"/"+sectionKey]; ok {
		s.apply(o)
	}
	if p.ID != p.GalleryKey {
		if o, ok := c.Sections[p.ID+"/"+sectionKey]; ok {
			s.apply(o)
		}
	}
	return s
}

func (s *SectionSettings) apply(o SectionConfig) {
	if o.MinItemsPerRow != nil {
		s.Params.MinItemsPerRow = *o.MinItemsPerRow
	}
	if o.TargetRowHeight != nil {
		s.Params.TargetRowHeight = *o.TargetRowHeight
	}
	if o.FirstRowCount != nil {
		s.Options.FirstRowCount = *o.FirstRowCount
	}
	if len(o.CustomRows) > 0 {
		s.Options.CustomRows = append([]int(nil), o.CustomRows...)
		s.CustomLayout = true
	}
	if o.ShowAllRows != nil {
		if *o.ShowAllRows {
			s.VisibleRows = 0
		}
	}
}
