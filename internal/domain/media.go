package domain

// MediaFile 描述一次扫描得到的图库文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - RelPath 相对站点根目录，统一使用 '/' 分隔（直接用作页面中的 src）
type MediaFile struct {
	AbsPath string
	RelPath string

	Project string // images/gallery 下的一级目录，例如 "1-brands"
	Section string // 二级目录；文件直接位于项目目录下时为 "main"

	Base    string // filename without ext
	Ext     string // ".jpg"（小写）
	IsVideo bool
	Size    int64
	ModUnix int64
}

// Dims 是媒体的固有像素尺寸。
type Dims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	// Fallback 表示尺寸无法探测，使用了占位尺寸。
	Fallback bool `json:"fallback,omitempty"`
}

// MediaItem 是布局引擎的输入：尺寸已全部解析完成，之后不再修改。
//
// 约束：NaturalWidth/NaturalHeight 必须 > 0（由调用方保证，引擎不做检查）。
type MediaItem struct {
	SourcePath    string `json:"src"`
	NaturalWidth  int    `json:"width"`
	NaturalHeight int    `json:"height"`
	DisplayIndex  int    `json:"index"`

	IsVideo      bool   `json:"isVideo,omitempty"`
	Description  string `json:"description,omitempty"`
	DimsFallback bool   `json:"-"`
}

// AspectRatio 返回宽高比（w/h）。
func (m MediaItem) AspectRatio() float64 {
	return float64(m.NaturalWidth) / float64(m.NaturalHeight)
}

// Cover 是移动端轮播的一张封面（images/mobile-covers/<category>/<file>）。
type Cover struct {
	Category string
	AbsPath  string
	RelPath  string
	Name     string // 文件名（含扩展名）
}
