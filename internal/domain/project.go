package domain

// ProjectInfo 描述一个项目页：输出 project-<ID>.html，内容来自 gallery 的 GalleryKey 目录。
type ProjectInfo struct {
	ID         string `yaml:"id" json:"id"`
	Category   string `yaml:"category" json:"category"` // 页面顶部的大写分类名
	GalleryKey string `yaml:"gallery_key" json:"gallery_key"`
	// Animation 为 true 时，项目内所有视频按动画视频渲染（带声音按钮）。
	Animation bool `yaml:"animation" json:"animation,omitempty"`
}

// PageFile 返回项目页文件名。
func (p ProjectInfo) PageFile() string { return "project-" + p.ID + ".html" }
