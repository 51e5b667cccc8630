package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusWritten   = "written"
	StatusUnchanged = "unchanged"
	StatusPlanned   = "planned"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	KindPage     = "page"
	KindData     = "data"
	KindSitemap  = "sitemap"
	KindThumb    = "thumb"
	KindCarousel = "carousel"
	KindContent  = "content"
)

const (
	ErrCodeIOFailed          = "io_failed"
	ErrCodeRenderFailed      = "render_failed"
	ErrCodeProbeFailed       = "probe_failed"
	ErrCodeImageFailed       = "image_failed"
	ErrCodeNoContainer       = "no_container"
	ErrCodeConfigNotFound    = "config_not_found"
	ErrCodeConfigInvalid     = "config_invalid"
	ErrCodeConfigMissingPath = "config_missing_path"
)

// Report 是对外稳定输出（.folio/report.json / stdout JSON）的结构。
// build/thumbs/carousels/describe 共用同一结构，Command 区分来源。
type Report struct {
	BuildID string `json:"build_id"`
	Command string `json:"command"`
	Path    string `json:"path"`
	DryRun  bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Planned   int `json:"planned"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Fallbacks int `json:"fallbacks"`
}

type ItemResult struct {
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Project string `json:"project,omitempty"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Sections  int `json:"sections,omitempty"`
	Media     int `json:"media,omitempty"`
	Rows      int `json:"rows,omitempty"`
	Fallbacks int `json:"fallbacks,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 kind，再按 target 字典序；target=="" 的合成条目排在最后
// 3) summary 由 items 计算得出
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a, b := r.Items[i], r.Items[j]
		if a.Target == "" || b.Target == "" {
			return a.Target != "" && b.Target == ""
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Target < b.Target
	})

	var s ReportSummary
	for _, it := range r.Items {
		switch it.Status {
		case StatusWritten:
			s.Written++
		case StatusUnchanged:
			s.Unchanged++
		case StatusPlanned:
			s.Planned++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Fallbacks += it.Fallbacks
	}
	r.Summary = s
}

// MarshalJSON 保证 items 为空时输出 [] 而不是 null。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	return json.Marshal(Alias(r))
}

// CheckReport 是链接检查的输出。
type CheckReport struct {
	Root    string        `json:"root"`
	BaseURL string        `json:"base_url,omitempty"`
	Pages   int           `json:"pages"`
	Checked int           `json:"checked"`
	Missing []MissingLink `json:"missing"`
}

type MissingLink struct {
	Page   string `json:"page"`
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}
