package layout

import "github.com/John-Robertt/folio/internal/domain"

// SectionOptions 是分区级的行规划选项。
type SectionOptions struct {
	// CustomRows 依次切出固定数量的前缀行，例如 [1, 4, 5]：第一行 1 个（通常是整宽视频）。
	CustomRows []int
	// FirstRowCount 固定第一行的 item 数（仅当 item 总数 ≥ 该值时生效）。
	FirstRowCount int
}

// LayoutSection 先按 opts 切出前缀行（每行各自归一化），剩余部分交给 LayoutRows。
// CustomRows 优先于 FirstRowCount；两者都为空时等价于 Rows。
func LayoutSection(items []domain.MediaItem, p Params, opts SectionOptions) []domain.LayoutRow {
	rows := make([]domain.LayoutRow, 0, 4)
	rest := items

	switch {
	case len(opts.CustomRows) > 0:
		for _, count := range opts.CustomRows {
			if len(rest) == 0 {
				break
			}
			if count < 1 {
				continue
			}
			if count > len(rest) {
				count = len(rest)
			}
			rows = append(rows, fixedRow(rest[:count], p))
			rest = rest[count:]
		}
	case opts.FirstRowCount > 0 && len(items) >= opts.FirstRowCount:
		rows = append(rows, fixedRow(items[:opts.FirstRowCount], p))
		rest = items[opts.FirstRowCount:]
	}

	return append(rows, Rows(rest, p)...)
}

func fixedRow(items []domain.MediaItem, p Params) domain.LayoutRow {
	cur := rowCandidate{}
	for _, it := range items {
		cur.add(it, unscaledWidth(it, p.TargetRowHeight))
	}
	return normalize(cur, p.ContainerWidth, p.TargetRowHeight, p.Gap)
}
