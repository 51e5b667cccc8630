package config

import (
	"reflect"
	"testing"

	"github.com/John-Robertt/folio/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestResolveSection(t *testing.T) {
	c := EffectiveConfig{
		Layout: Layout{ContainerWidth: 1000, TargetRowHeight: 300, Gap: 10, MinItemsPerRow: 3, VisibleRows: 3},
		TitleOverrides: map[string]SectionConfig{
			"Sketches": {MinItemsPerRow: ptr(4), ShowAllRows: ptr(true)},
		},
		Sections: map[string]SectionConfig{
			"1-brands/2-sketches": {MinItemsPerRow: ptr(2), TargetRowHeight: ptr(250.0)},
			"brands/1-nike":       {CustomRows: []int{1, 4}},
		},
	}
	p := domain.ProjectInfo{ID: "brands", GalleryKey: "1-brands"}

	def := c.ResolveSection(p, "3-other", "Other")
	if def.Params.MinItemsPerRow != 3 || def.VisibleRows != 3 || def.CustomLayout {
		t.Fatalf("无覆盖时应使用全局默认，实际 %+v", def)
	}

	// title_overrides 先于 sections 叠加。
	got := c.ResolveSection(p, "2-sketches", "Sketches")
	if got.Params.MinItemsPerRow != 2 || got.Params.TargetRowHeight != 250 || got.VisibleRows != 0 {
		t.Fatalf("覆盖顺序不对：%+v", got)
	}

	nike := c.ResolveSection(p, "1-nike", "Nike")
	if !nike.CustomLayout || !reflect.DeepEqual(nike.Options.CustomRows, []int{1, 4}) {
		t.Fatalf("按项目 id 配置的 sections 应生效：%+v", nike)
	}
}
