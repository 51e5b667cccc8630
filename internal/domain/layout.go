package domain

// Placement 是单个 item 在行内的渲染尺寸。
type Placement struct {
	Item         MediaItem `json:"item"`
	RenderWidth  float64   `json:"renderWidth"`
	RenderHeight float64   `json:"renderHeight"`
}

// LayoutRow 是一行布局结果：行内所有 item 共享同一 RenderHeight。
type LayoutRow struct {
	Items []Placement `json:"items"`
}

// Height 返回行高；空行返回 0。
func (r LayoutRow) Height() float64 {
	if len(r.Items) == 0 {
		return 0
	}
	return r.Items[0].RenderHeight
}

// Width 返回行的总宽度（含 item 之间的 gap）。
func (r LayoutRow) Width(gap float64) float64 {
	if len(r.Items) == 0 {
		return 0
	}
	w := gap * float64(len(r.Items)-1)
	for _, p := range r.Items {
		w += p.RenderWidth
	}
	return w
}
