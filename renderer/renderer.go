package renderer

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/ByLCY/tagboard/layout"
)

// Renderer 将布局结果一次性绘制为最终文件，返回编码后的字节。
type Renderer interface {
	Render(ctx context.Context, result *layout.Result, format Format) ([]byte, error)
}

// Format 是输出文件格式。
type Format string

const (
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat 解析格式名，空串视为 PNG。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q", s)
	}
}

// PaintOptions 描述图元之外的画布装饰：底色、右下角装饰图与半透明罩层。
type PaintOptions struct {
	Padding    float64
	Background layout.Color
	Veil       layout.Color
	// Decoration 可为 nil。
	Decoration      image.Image
	DecorationScale float64
}

// Box 是画布坐标中的矩形。
type Box struct {
	X, Y, Width, Height float64
}

// Surface 返回整张画布的尺寸：内容区四周各加一圈 Padding。
func (o PaintOptions) Surface(res *layout.Result) (width, height float64) {
	return res.Width + 2*o.Padding, res.Height + 2*o.Padding
}

// DecorationBox 计算装饰图的位置：宽度为 min(宽, 高) 的 DecorationScale 倍，
// 高度按原图比例，贴住画布右下角。没有装饰图时 ok 为 false。
func (o PaintOptions) DecorationBox(res *layout.Result) (box Box, ok bool) {
	if o.Decoration == nil {
		return Box{}, false
	}
	b := o.Decoration.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Box{}, false
	}
	w, h := o.Surface(res)
	scale := o.DecorationScale
	if scale <= 0 {
		scale = 0.7
	}
	dw := math.Min(w, h) * scale
	dh := dw * float64(b.Dy()) / float64(b.Dx())
	return Box{X: w - dw, Y: h - dh, Width: dw, Height: dh}, true
}

// PixelSize 把浮点尺寸向上取整为像素尺寸，至少为 1。
func PixelSize(width, height float64) (int, int) {
	w := int(math.Ceil(width))
	h := int(math.Ceil(height))
	return max(w, 1), max(h, 1)
}
