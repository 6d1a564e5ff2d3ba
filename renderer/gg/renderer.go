// Package ggrenderer 使用 github.com/fogleman/gg 把布局结果栅格化为 PNG。
// 与 canvas 引擎相比它只输出位图，但缩略图可以按圆角裁剪。
package ggrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/fonts"
	"github.com/ByLCY/tagboard/layout"
	"github.com/ByLCY/tagboard/renderer"
)

// Renderer 同时实现 renderer.Renderer 与 layout.Measurer。
// truetype 的字体面带内部缓存，不能并发使用，所有访问都经过 mu。
type Renderer struct {
	fontSrc string
	paint   renderer.PaintOptions

	mu    sync.Mutex
	font  *truetype.Font
	faces map[float64]font.Face
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

// Options 配置 gg 渲染器。
type Options struct {
	Font  string
	Paint renderer.PaintOptions
}

func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		fontSrc: opts.Font,
		paint:   opts.Paint,
		faces:   map[float64]font.Face{},
	}
}

// MeasureText 返回推进宽度与字体上升部高度，单位为像素（DPI 72 时 1pt = 1px）。
func (r *Renderer) MeasureText(text string, fontSize float64) (layout.TextMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	face, err := r.face(fontSize)
	if err != nil {
		return layout.TextMetrics{}, err
	}
	return layout.TextMetrics{
		Width:  fixedToFloat(font.MeasureString(face, text)),
		Height: fixedToFloat(face.Metrics().Ascent),
	}, nil
}

// Render 绘制 result。只支持 PNG。
func (r *Renderer) Render(ctx context.Context, result *layout.Result, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, tberrors.New(tberrors.ErrCodeRender, "渲染结果为空")
	}
	if format != renderer.FormatPNG && format != "" {
		return nil, tberrors.New(tberrors.ErrCodeRender, "gg 引擎不支持输出格式 %q", format)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := r.paint.Surface(result)
	pw, ph := renderer.PixelSize(width, height)
	dc := gg.NewContext(pw, ph)
	r.drawSurface(dc, result, width, height)

	dc.Translate(r.paint.Padding, r.paint.Padding)
	for i, p := range result.Primitives {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var err error
		switch prim := p.(type) {
		case layout.Rect:
			fillRect(dc, prim.X, prim.Y, prim.Width, prim.Height, prim.Radius, prim.Color)
		case layout.Text:
			err = r.drawText(dc, prim)
		case layout.Image:
			drawImage(dc, prim)
		default:
			err = fmt.Errorf("未知的图元类型 %T", p)
		}
		if err != nil {
			return nil, tberrors.Wrap(tberrors.ErrCodeRender, err, "绘制第 %d 个图元失败", i)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeRender, err, "编码 PNG 失败")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawSurface(dc *gg.Context, result *layout.Result, width, height float64) {
	if !r.paint.Background.IsTransparent() {
		dc.SetColor(r.paint.Background.NRGBA())
		dc.Clear()
	}
	if box, ok := r.paint.DecorationBox(result); ok {
		drawScaled(dc, r.paint.Decoration, box.X, box.Y, box.Width, box.Height)
	}
	fillRect(dc, 0, 0, width, height, 0, r.paint.Veil)
}

func (r *Renderer) drawText(dc *gg.Context, t layout.Text) error {
	face, err := r.face(t.FontSize)
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetColor(t.Color.NRGBA())
	// gg 以基线定位，文本框顶部加上升部即为基线
	dc.DrawString(t.Content, t.X, t.Y+fixedToFloat(face.Metrics().Ascent))
	return nil
}

// drawImage 把缩略图缩放到槽位并按圆角裁剪；没有图片数据时画 Fallback 圆角矩形。
func drawImage(dc *gg.Context, img layout.Image) {
	if !img.Loaded() {
		fillRect(dc, img.X, img.Y, img.Width, img.Height, img.Radius, img.Fallback)
		return
	}
	if img.Radius > 0 {
		dc.DrawRoundedRectangle(img.X, img.Y, img.Width, img.Height, img.Radius)
		dc.Clip()
		// gg 的 Pop 不会恢复裁剪区域
		defer dc.ResetClip()
	}
	drawScaled(dc, img.Source, img.X, img.Y, img.Width, img.Height)
}

// drawScaled 用 Catmull-Rom 插值把 img 缩放到目标尺寸后贴到 (x, y)。
func drawScaled(dc *gg.Context, img image.Image, x, y, w, h float64) {
	pw, ph := int(math.Round(w)), int(math.Round(h))
	if pw <= 0 || ph <= 0 || img.Bounds().Empty() {
		return
	}
	scaled := image.NewNRGBA(image.Rect(0, 0, pw, ph))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
	dc.DrawImage(scaled, int(math.Round(x)), int(math.Round(y)))
}

func fillRect(dc *gg.Context, x, y, w, h, radius float64, col layout.Color) {
	if col.IsTransparent() || w <= 0 || h <= 0 {
		return
	}
	dc.SetColor(col.NRGBA())
	if radius > 0 {
		dc.DrawRoundedRectangle(x, y, w, h, radius)
	} else {
		dc.DrawRectangle(x, y, w, h)
	}
	dc.Fill()
}

// face 按字号缓存字体面。调用方需持有 mu。
func (r *Renderer) face(size float64) (font.Face, error) {
	if size <= 0 {
		return nil, tberrors.New(tberrors.ErrCodeMeasurementUnavailable, "字号必须为正数，实际 %g", size)
	}
	if face, ok := r.faces[size]; ok {
		return face, nil
	}
	if r.font == nil {
		f, err := parseFont(r.fontSrc)
		if err != nil {
			f, err = parseFont(fonts.Regular)
			if err != nil {
				return nil, tberrors.Wrap(tberrors.ErrCodeMeasurementUnavailable, err, "加载字体 %s 失败", r.fontSrc)
			}
		}
		r.font = f
	}
	face := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	r.faces[size] = face
	return face, nil
}

func parseFont(src string) (*truetype.Font, error) {
	data, err := fonts.Load(src)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
