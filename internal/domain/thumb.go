package domain

import (
	"path"
	"strings"
)

const (
	ThumbSuffix      = "_thumb.jpg"
	LargeThumbSuffix = "_thumb1000.jpg"
)

// ThumbState 描述某个原图对应缩略图的现状（只做 stat）。
type ThumbState struct {
	HasThumb      bool
	HasLargeThumb bool
	ThumbModUnix  int64
	LargeModUnix  int64
}

// ThumbPlan 规划一次缩略图生成。
type ThumbPlan struct {
	SrcAbs  string
	SrcRel  string
	DstAbs  string
	DstRel  string
	Width   int
	Large   bool
	Skip    bool   // 已存在且不旧于原图
	SkipWhy string // 仅用于报告
}

// Thumbable 判断该扩展名的原图是否生成缩略图（svg/gif 与视频直接使用原文件）。
func Thumbable(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}

// ThumbPath 把原图路径（'/' 或系统分隔符均可）映射为缩略图路径：去掉扩展名后追加后缀。
func ThumbPath(p string, large bool) string {
	stem := strings.TrimSuffix(p, path.Ext(p))
	if large {
		return stem + LargeThumbSuffix
	}
	return stem + ThumbSuffix
}
