package imgx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // 注册 GIF 解码器（只用于探测尺寸）
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（输入不一定总是 jpeg）
	"io"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// DecodeDims 只读取图片头部得到像素尺寸（不解码像素）。
// 支持 JPEG/PNG/GIF/WebP。
func DecodeDims(r io.Reader) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, "", err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, format, fmt.Errorf("图片尺寸无效：%dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, format, nil
}

// ResizeToWidthJPEG 把图片等比缩放到指定宽度，并编码为 JPEG（用于 _thumb.jpg）。
//
// 约束：
// - 输入允许是 JPEG/PNG/GIF/WebP
// - 输出固定为 JPEG；透明区域铺白底
// - 原图比目标窄时不放大，只做重新编码
// - 缩放使用 CatmullRom 插值
func ResizeToWidthJPEG(src []byte, width, quality int) ([]byte, error) {
	if len(src) == 0 {
		return nil, errors.New("图片为空")
	}
	if width <= 0 {
		return nil, fmt.Errorf("目标宽度无效：%d", width)
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	if width > b.Dx() {
		width = b.Dx()
	}
	height := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
