package domain

import "encoding/json"

// TextContent 对应 text-content.json：项目/分区/图片的展示文字。
//
// 该文件同时被站点其它页面使用，projects 之外的顶层字段原样保存在 Extra 中，写回时保留。
type TextContent struct {
	Projects map[string]ProjectText     `json:"projects"`
	Extra    map[string]json.RawMessage `json:"-"`
}

type ProjectText struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Sections    map[string]SectionText `json:"sections"`
}

type SectionText struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Images      []ImageText `json:"images"`
}

// ImageText 以文件名（不含目录）为键，描述出现在 overlay 与 lightbox 中。
type ImageText struct {
	File        string `json:"file"`
	Description string `json:"description"`
}

// Descriptions 返回分区内 文件名 -> 描述 的查找表。
func (s SectionText) Descriptions() map[string]string {
	m := make(map[string]string, len(s.Images))
	for _, it := range s.Images {
		m[it.File] = it.Description
	}
	return m
}

func (tc *TextContent) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	tc.Projects = map[string]ProjectText{}
	tc.Extra = nil
	for k, v := range raw {
		if k == "projects" {
			if err := json.Unmarshal(v, &tc.Projects); err != nil {
				return err
			}
			if tc.Projects == nil {
				tc.Projects = map[string]ProjectText{}
			}
			continue
		}
		if tc.Extra == nil {
			tc.Extra = make(map[string]json.RawMessage, len(raw))
		}
		tc.Extra[k] = v
	}
	return nil
}

func (tc TextContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(tc.Fields())
}

// Fields 返回写回文件时的顶层字段（Extra + projects）。
func (tc TextContent) Fields() map[string]any {
	out := make(map[string]any, len(tc.Extra)+1)
	for k, v := range tc.Extra {
		out[k] = v
	}
	projects := tc.Projects
	if projects == nil {
		projects = map[string]ProjectText{}
	}
	out["projects"] = projects
	return out
}
