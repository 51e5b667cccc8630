// Package probe 解析媒体的固有像素尺寸。
//
// 布局引擎要求所有尺寸在调用前就绪；这里负责把“读不出尺寸”降级为占位尺寸，
// 保证下游永远拿到 > 0 的宽高。
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/folio/internal/domain"
	"github.com/John-Robertt/folio/internal/infra/cache"
	"github.com/John-Robertt/folio/internal/infra/imgx"
)

// 探测失败时的占位尺寸（3:2）。
const (
	FallbackWidth  = 1200
	FallbackHeight = 800
)

var errNoSource = errors.New("没有可读取尺寸的文件")

// Prober 探测媒体尺寸。零值可用（无缓存、无日志）。
type Prober struct {
	Cache *cache.DimsStore
	Log   *zap.Logger
}

func New(store *cache.DimsStore, log *zap.Logger) *Prober {
	return &Prober{Cache: store, Log: log}
}

// Probe 返回 f 的尺寸。
//
// 规则：
// - 缓存命中（RelPath + Size + ModUnix）直接返回
// - 视频：读取同名海报 <base>_thumb.jpg / <base>_thumb1000.jpg
// - 位图：优先读不旧于原图的缩略图，再读原图（image.DecodeConfig 只读头部）
// - svg：根元素 width/height，缺失时取 viewBox
// - 全部失败：返回 1200x800 且 Fallback=true
//
// 只有 ctx 被取消时返回 error；探测失败不是错误。
func (p *Prober) Probe(ctx context.Context, f domain.MediaFile) (domain.Dims, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dims{}, err
	}
	if p.Cache != nil {
		if d, ok := p.Cache.Get(f); ok {
			return d, nil
		}
	}

	d, err := measure(f)
	if err != nil {
		p.logger().Warn("尺寸探测失败，使用占位尺寸",
			zap.String("file", f.RelPath),
			zap.Error(err))
		return domain.Dims{Width: FallbackWidth, Height: FallbackHeight, Fallback: true}, nil
	}

	if p.Cache != nil {
		p.Cache.Put(f, d)
	}
	return d, nil
}

// ProbeAll 并发探测 files，结果与输入一一对应（按下标）。
// concurrency < 1 按 1 处理；ctx 取消时返回 ctx 的错误。
func (p *Prober) ProbeAll(ctx context.Context, files []domain.MediaFile, concurrency int) ([]domain.Dims, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([]domain.Dims, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range files {
		g.Go(func() error {
			d, err := p.Probe(gctx, files[i])
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Prober) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func measure(f domain.MediaFile) (domain.Dims, error) {
	var errs []error
	for _, path := range candidates(f) {
		d, err := measureFile(path)
		if err == nil {
			return d, nil
		}
		if !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%s：%w", path, err))
		}
	}
	if len(errs) == 0 {
		return domain.Dims{}, errNoSource
	}
	return domain.Dims{}, errors.Join(errs...)
}

// candidates 按优先级返回可读取尺寸的文件。
func candidates(f domain.MediaFile) []string {
	if f.IsVideo {
		return []string{domain.ThumbPath(f.AbsPath, false), domain.ThumbPath(f.AbsPath, true)}
	}
	if !domain.Thumbable(f.Ext) {
		return []string{f.AbsPath}
	}

	out := make([]string, 0, 3)
	for _, large := range []bool{false, true} {
		p := domain.ThumbPath(f.AbsPath, large)
		// 原图更新过而缩略图还没重建时，缩略图的宽高比可能已经不对。
		if st, err := os.Stat(p); err == nil && st.ModTime().Unix() >= f.ModUnix {
			out = append(out, p)
		}
	}
	return append(out, f.AbsPath)
}

func measureFile(path string) (domain.Dims, error) {
	fh, err := os.Open(path)
	if err != nil {
		return domain.Dims{}, err
	}
	defer fh.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return svgDims(fh)
	}
	w, h, _, err := imgx.DecodeDims(fh)
	if err != nil {
		return domain.Dims{}, err
	}
	return domain.Dims{Width: w, Height: h}, nil
}
