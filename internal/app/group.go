package app

import (
	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/naming"
)

// GroupGallery 把扫描结果聚合为 gallery-data.json 的结构。
//
// - Images 保持输入顺序（ScanMedia 已按自然序排序）
// - 同一 RelPath 只出现一次
func GroupGallery(files []domain.MediaFile) domain.Gallery {
	g := domain.Gallery{Projects: make(map[string]domain.Project, 16)}
	seen := make(map[string]struct{}, len(files))

	for _, f := range files {
		if _, dup := seen[f.RelPath]; dup {
			continue
		}
		seen[f.RelPath] = struct{}{}

		p, ok := g.Projects[f.Project]
		if !ok {
			p = domain.Project{Sections: make(map[string]domain.Section, 8)}
		}
		s := p.Sections[f.Section]
		s.Images = append(s.Images, f.RelPath)
		p.Sections[f.Section] = s
		g.Projects[f.Project] = p
	}
	return g
}

// IndexFiles 建立 RelPath -> MediaFile 的索引，供按 gallery 路径回查文件信息。
func IndexFiles(files []domain.MediaFile) map[string]domain.MediaFile {
	idx := make(map[string]domain.MediaFile, len(files))
	for _, f := range files {
		idx[f.RelPath] = f
	}
	return idx
}

// ResolveProjects 返回最终的项目列表。
//
// - configured 非空：原样使用（缺省字段按 gallery_key 推导），保持配置顺序
// - configured 为空：由 gallery 顶层目录推导（id = slug，category = 大写标题），按自然序
func ResolveProjects(configured []domain.ProjectInfo, g domain.Gallery) []domain.ProjectInfo {
	if len(configured) > 0 {
		out := make([]domain.ProjectInfo, 0, len(configured))
		for _, p := range configured {
			if p.ID == "" {
				p.ID = naming.Slug(p.GalleryKey)
			}
			if p.GalleryKey == "" {
				p.GalleryKey = findGalleryKey(g, p.ID)
			}
			if p.Category == "" {
				p.Category = naming.Upper(p.GalleryKey)
			}
			out = append(out, p)
		}
		return out
	}

	keys := g.ProjectKeys()
	out := make([]domain.ProjectInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.ProjectInfo{
			ID:         naming.Slug(k),
			Category:   naming.Upper(k),
			GalleryKey: k,
		})
	}
	return out
}

// findGalleryKey 在 gallery 中找 slug 与 id 相同的目录；找不到时返回 id 本身。
func findGalleryKey(g domain.Gallery, id string) string {
	for _, k := range g.ProjectKeys() {
		if naming.Slug(k) == id {
			return k
		}
	}
	return id
}
