package domain

import (
	"sort"

	"github.com/John-Robertt/folio/internal/naming"
)

// Gallery 对应 gallery-data.json 的结构（与旧版前端脚本读取的格式保持兼容）。
type Gallery struct {
	Projects map[string]Project `json:"projects"`
}

type Project struct {
	Sections map[string]Section `json:"sections"`
}

// Section 的 Images 是站点相对路径（例如 images/gallery/1-brands/1-nike/a.jpg），保持自然序。
type Section struct {
	Images []string `json:"images"`
}

// ProjectKeys 按自然序返回项目 key（JSON map 无序，渲染顺序必须由这里决定）。
func (g Gallery) ProjectKeys() []string {
	return sortedKeys(g.Projects)
}

// SectionKeys 按自然序返回分区 key。
func (p Project) SectionKeys() []string {
	return sortedKeys(p.Sections)
}

// Count 返回图库中的媒体总数。
func (g Gallery) Count() int {
	n := 0
	for _, p := range g.Projects {
		for _, s := range p.Sections {
			n += len(s.Images)
		}
	}
	return n
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return naming.Less(keys[i], keys[j]) })
	return keys
}
