package planner

import (
	"os"

	"github.com/John-Robertt/folio/internal/domain"
)

// Options 是缩略图规划参数。
type Options struct {
	Width      int // 普通缩略图宽度（_thumb.jpg）
	LargeWidth int // 分区最后一张的宽度（_thumb1000.jpg）
	Force      bool
}

// ReadThumbState 读取某个原图旁缩略图的现状（只做 stat，不读文件内容）。
// 缩略图不存在不算错误。
func ReadThumbState(f domain.MediaFile) (domain.ThumbState, error) {
	var st domain.ThumbState

	small, err := os.Stat(domain.ThumbPath(f.AbsPath, false))
	switch {
	case err == nil:
		st.HasThumb = true
		st.ThumbModUnix = small.ModTime().Unix()
	case !os.IsNotExist(err):
		return domain.ThumbState{}, err
	}

	large, err := os.Stat(domain.ThumbPath(f.AbsPath, true))
	switch {
	case err == nil:
		st.HasLargeThumb = true
		st.LargeModUnix = large.ModTime().Unix()
	case !os.IsNotExist(err):
		return domain.ThumbState{}, err
	}
	return st, nil
}

// ReadThumbStates 对所有可生成缩略图的文件调用 ReadThumbState，结果以 RelPath 为键。
func ReadThumbStates(files []domain.MediaFile) (map[string]domain.ThumbState, error) {
	out := make(map[string]domain.ThumbState, len(files))
	for _, f := range files {
		if f.IsVideo || !domain.Thumbable(f.Ext) {
			continue
		}
		st, err := ReadThumbState(f)
		if err != nil {
			return nil, err
		}
		out[f.RelPath] = st
	}
	return out, nil
}

// PlanThumbs 基于扫描结果 + 缩略图现状生成确定性的执行计划（不做任何写入）。
//
// 规则：
// - 只处理 Thumbable 的图片；视频海报与 svg/gif 不生成
// - 每个分区（project/section）中最后一张可处理图片生成 LargeWidth 的 _thumb1000.jpg，其余生成 Width 的 _thumb.jpg
// - 目标已存在且 mtime 不早于原图时标记 Skip（Force 时全部重建）
//
// files 需已按展示顺序排序（ScanMedia 的输出即可）。
func PlanThumbs(files []domain.MediaFile, states map[string]domain.ThumbState, opt Options) []domain.ThumbPlan {
	type sectionKey struct{ project, section string }

	last := make(map[sectionKey]string, 32)
	for _, f := range files {
		if f.IsVideo || !domain.Thumbable(f.Ext) {
			continue
		}
		last[sectionKey{f.Project, f.Section}] = f.RelPath
	}

	plans := make([]domain.ThumbPlan, 0, len(files))
	for _, f := range files {
		if f.IsVideo || !domain.Thumbable(f.Ext) {
			continue
		}
		large := last[sectionKey{f.Project, f.Section}] == f.RelPath

		p := domain.ThumbPlan{
			SrcAbs: f.AbsPath,
			SrcRel: f.RelPath,
			DstAbs: domain.ThumbPath(f.AbsPath, large),
			DstRel: domain.ThumbPath(f.RelPath, large),
			Width:  opt.Width,
			Large:  large,
		}
		if large {
			p.Width = opt.LargeWidth
		}

		if !opt.Force {
			st := states[f.RelPath]
			has, mod := st.HasThumb, st.ThumbModUnix
			if large {
				has, mod = st.HasLargeThumb, st.LargeModUnix
			}
			if has && mod >= f.ModUnix {
				p.Skip = true
				p.SkipWhy = "缩略图已是最新"
			}
		}

		plans = append(plans, p)
	}
	return plans
}
