// Package content 读写 text-content.json，并把图库中的文件同步为可填写描述的条目。
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/fsx"
	"github.com/John-Robertt/folio/internal/naming"
)

// FileName 是文字内容文件相对站点根目录的位置。
const FileName = "text-content.json"

// SyncStats 统计一次 Sync 带来的变化。
type SyncStats struct {
	ProjectsAdded int `json:"projects_added"`
	SectionsAdded int `json:"sections_added"`
	ImagesAdded   int `json:"images_added"`
	ImagesRemoved int `json:"images_removed"`
}

// Changed 表示 Sync 是否修改了内容。
func (s SyncStats) Changed() bool {
	return s.ProjectsAdded+s.SectionsAdded+s.ImagesAdded+s.ImagesRemoved > 0
}

// Load 读取 text-content.json。文件不存在不算错误（exists=false，返回空内容）。
func Load(p string) (tc domain.TextContent, exists bool, err error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.TextContent{Projects: map[string]domain.ProjectText{}}, false, nil
		}
		return domain.TextContent{}, false, err
	}
	if err := json.Unmarshal(b, &tc); err != nil {
		return domain.TextContent{}, true, fmt.Errorf("解析 %s 失败：%w", p, err)
	}
	return tc, true, nil
}

// Sync 为 gallery 中的每个媒体补齐文字条目，返回新的内容（不修改入参）。
//
// 规则：
// - 只处理 projects 中列出的项目（gallery_key -> id 映射）
// - 缺失的项目以 Title(id) 为标题；缺失的分区以 Title(section key) 为标题
// - 分区的 images 按 gallery 顺序重建；同名文件保留已有描述，已删除的文件被移除
// - 不在 gallery 中的分区与项目原样保留
func Sync(tc domain.TextContent, g domain.Gallery, projects []domain.ProjectInfo) (domain.TextContent, SyncStats) {
	out := clone(tc)
	var st SyncStats

	for _, p := range projects {
		gp, ok := g.Projects[p.GalleryKey]
		if !ok {
			continue
		}

		pt, ok := out.Projects[p.ID]
		if !ok {
			pt = domain.ProjectText{Title: naming.Title(p.ID)}
			st.ProjectsAdded++
		}
		if pt.Sections == nil {
			pt.Sections = map[string]domain.SectionText{}
		}

		for _, key := range gp.SectionKeys() {
			stext, ok := pt.Sections[key]
			if !ok {
				stext = domain.SectionText{Title: naming.Title(key)}
				st.SectionsAdded++
			}

			existing := stext.Descriptions()
			images := make([]domain.ImageText, 0, len(gp.Sections[key].Images))
			for _, src := range gp.Sections[key].Images {
				file := path.Base(src)
				desc, had := existing[file]
				if !had {
					st.ImagesAdded++
				}
				delete(existing, file)
				images = append(images, domain.ImageText{File: file, Description: desc})
			}
			st.ImagesRemoved += len(existing)

			stext.Images = images
			pt.Sections[key] = stext
		}
		out.Projects[p.ID] = pt
	}
	return out, st
}

// Marshal 以 2 空格缩进编码，不转义非 ASCII 与 HTML 字符（描述里常有 "&"），末尾带换行。
func Marshal(tc domain.TextContent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tc.Fields()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save 原子写入；内容未变化时不写盘（changed=false）。
func Save(p string, tc domain.TextContent) (changed bool, err error) {
	b, err := Marshal(tc)
	if err != nil {
		return false, err
	}
	return fsx.WriteFileIfChanged(p, b)
}

func clone(tc domain.TextContent) domain.TextContent {
	out := domain.TextContent{
		Projects: make(map[string]domain.ProjectText, len(tc.Projects)),
		Extra:    tc.Extra,
	}
	for id, p := range tc.Projects {
		cp := p
		cp.Sections = make(map[string]domain.SectionText, len(p.Sections))
		for k, s := range p.Sections {
			cs := s
			cs.Images = append([]domain.ImageText(nil), s.Images...)
			cp.Sections[k] = cs
		}
		out.Projects[id] = cp
	}
	return out
}
