// Package layout 实现 justified 行布局：把宽高比各异的媒体按原顺序分组成行，
// 每行统一缩放到恰好填满容器宽度。
//
// 所有函数都是纯函数：不读写外部状态，相同输入得到逐位相同的输出，可被任意并发调用。
package layout

import "github.com/John-Robertt/folio/internal/domain"

// Params 是一次布局的几何参数。
type Params struct {
	ContainerWidth  float64
	TargetRowHeight float64
	Gap             float64
	MinItemsPerRow  int
}

// rowCandidate 是尚未归一化的行。
type rowCandidate struct {
	items  []domain.MediaItem
	widths []float64 // 每个 item 在 targetRowHeight 下的 unscaled 宽度
	sum    float64
}

func (r *rowCandidate) add(it domain.MediaItem, w float64) {
	r.items = append(r.items, it)
	r.widths = append(r.widths, w)
	r.sum += w
}

func (r *rowCandidate) len() int { return len(r.items) }

// LayoutRows 以单遍贪心（不回溯）把 items 分组成行并归一化。
//
// 规则：
// - 当前行不足 minItemsPerRow 个时无条件追加（允许溢出容器宽度）
// - 否则只有 acc + w + gap×count ≤ containerWidth 才追加；放不下则闭合当前行，以该 item 开新行
// - 每一行（包括最后一行）都被缩放到恰好填满 containerWidth
//
// 前置条件：尺寸 > 0、containerWidth > 0（不做检查，违例时结果无意义）。
// minItemsPerRow < 1 按 1 处理。
func LayoutRows(items []domain.MediaItem, containerWidth, targetRowHeight, gap float64, minItemsPerRow int) []domain.LayoutRow {
	if minItemsPerRow < 1 {
		minItemsPerRow = 1
	}

	rows := make([]domain.LayoutRow, 0, len(items)/2+1)
	cur := rowCandidate{}

	for _, it := range items {
		w := unscaledWidth(it, targetRowHeight)

		switch {
		case cur.len() < minItemsPerRow:
			cur.add(it, w)
		case cur.sum+w+gap*float64(cur.len()) <= containerWidth:
			cur.add(it, w)
		default:
			rows = append(rows, normalize(cur, containerWidth, targetRowHeight, gap))
			cur = rowCandidate{}
			cur.add(it, w)
		}
	}

	if cur.len() > 0 {
		rows = append(rows, normalize(cur, containerWidth, targetRowHeight, gap))
	}
	return rows
}

// Rows 是 LayoutRows 的 Params 形式。
func Rows(items []domain.MediaItem, p Params) []domain.LayoutRow {
	return LayoutRows(items, p.ContainerWidth, p.TargetRowHeight, p.Gap, p.MinItemsPerRow)
}

func unscaledWidth(it domain.MediaItem, targetRowHeight float64) float64 {
	return targetRowHeight * float64(it.NaturalWidth) / float64(it.NaturalHeight)
}

// normalize 只会被非空行调用，因此不存在除零。
func normalize(r rowCandidate, containerWidth, targetRowHeight, gap float64) domain.LayoutRow {
	n := r.len()
	available := containerWidth - float64(n-1)*gap
	scale := available / r.sum

	out := domain.LayoutRow{Items: make([]domain.Placement, n)}
	for i := range r.items {
		out.Items[i] = domain.Placement{
			Item:         r.items[i],
			RenderWidth:  r.widths[i] * scale,
			RenderHeight: targetRowHeight * scale,
		}
	}
	return out
}
