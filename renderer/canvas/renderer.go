package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/fonts"
	"github.com/ByLCY/tagboard/layout"
	"github.com/ByLCY/tagboard/renderer"
)

// 内容坐标的 1 个单位对应画布的 1 mm，栅格化时按 1 像素/mm 输出，
// 因此字号换算为 pt 后与像素一一对应。
const (
	mmToPt = 2.8346456693
	dpmm   = 1.0
)

// Renderer 基于 github.com/tdewolff/canvas 绘制布局结果，同时充当布局阶段的文本测量器。
type Renderer struct {
	fontSrc string
	paint   renderer.PaintOptions

	fontMu sync.Mutex
	family *canvas.FontFamily
	faces  map[faceKey]*canvas.FontFace
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Measurer   = (*Renderer)(nil)
)

type faceKey struct {
	size  float64
	color layout.Color
}

// Options 配置 canvas 渲染器。
type Options struct {
	// Font 是 fonts.Load 接受的字体来源，空串使用内置字体。
	Font  string
	Paint renderer.PaintOptions
}

// NewRenderer 创建渲染器。字体在首次测量或绘制时加载。
func NewRenderer(opts Options) *Renderer {
	return &Renderer{
		fontSrc: opts.Font,
		paint:   opts.Paint,
		faces:   map[faceKey]*canvas.FontFace{},
	}
}

// MeasureText 实现 layout.Measurer：宽度为字形推进宽度，高度取字体上升部，
// 与以顶部为基线绘制时文字实际占据的高度一致。
func (r *Renderer) MeasureText(text string, fontSize float64) (layout.TextMetrics, error) {
	face, err := r.face(fontSize, layout.Black)
	if err != nil {
		return layout.TextMetrics{}, err
	}
	return layout.TextMetrics{
		Width:  face.TextWidth(text),
		Height: face.Metrics().Ascent,
	}, nil
}

// Render 绘制 result，按 format 编码为 PNG 或 PDF。
func (r *Renderer) Render(ctx context.Context, result *layout.Result, format renderer.Format) ([]byte, error) {
	if result == nil {
		return nil, tberrors.New(tberrors.ErrCodeRender, "渲染结果为空")
	}
	width, height := r.paint.Surface(result)
	c := canvas.New(width, height)
	cctx := canvas.NewContext(c)
	cctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	cctx.SetStrokeColor(canvas.Transparent)

	r.drawSurface(cctx, result, width, height)
	pad := r.paint.Padding
	for i, p := range result.Primitives {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var err error
		switch prim := p.(type) {
		case layout.Rect:
			fillRect(cctx, pad+prim.X, pad+prim.Y, prim.Width, prim.Height, prim.Radius, prim.Color)
		case layout.Text:
			err = r.drawText(cctx, prim.Translate(pad, pad).(layout.Text))
		case layout.Image:
			drawImage(cctx, prim.Translate(pad, pad).(layout.Image))
		default:
			err = fmt.Errorf("未知的图元类型 %T", p)
		}
		if err != nil {
			return nil, tberrors.Wrap(tberrors.ErrCodeRender, err, "绘制第 %d 个图元失败", i)
		}
	}

	switch format {
	case renderer.FormatPNG, "":
		return encodePNG(c)
	case renderer.FormatPDF:
		return encodePDF(c, width, height)
	default:
		return nil, tberrors.New(tberrors.ErrCodeRender, "不支持的输出格式 %q", format)
	}
}

// drawSurface 依次铺底色、装饰图与白色罩层。
func (r *Renderer) drawSurface(ctx *canvas.Context, result *layout.Result, width, height float64) {
	fillRect(ctx, 0, 0, width, height, 0, r.paint.Background)
	if box, ok := r.paint.DecorationBox(result); ok {
		img := r.paint.Decoration
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(float64(img.Bounds().Dx())/box.Width))
	}
	fillRect(ctx, 0, 0, width, height, 0, r.paint.Veil)
}

func (r *Renderer) drawText(ctx *canvas.Context, t layout.Text) error {
	face, err := r.face(t.FontSize, t.Color)
	if err != nil {
		return err
	}
	line := canvas.NewTextLine(face, t.Content, canvas.Left)
	// 基线位置：文本框顶部加上字体上升部
	ctx.DrawText(t.X, t.Y+face.Metrics().Ascent, line)
	return nil
}

// drawImage 绘制缩略图；没有图片数据时用 Fallback 颜色画同尺寸的圆角矩形。
func drawImage(ctx *canvas.Context, img layout.Image) {
	if !img.Loaded() || img.Width <= 0 {
		fillRect(ctx, img.X, img.Y, img.Width, img.Height, img.Radius, img.Fallback)
		return
	}
	res := float64(img.Source.Bounds().Dx()) / img.Width
	if res <= 0 {
		res = dpmm
	}
	ctx.DrawImage(img.X, img.Y, img.Source, canvas.DPMM(res))
}

func fillRect(ctx *canvas.Context, x, y, w, h, radius float64, col layout.Color) {
	if col.IsTransparent() || w <= 0 || h <= 0 {
		return
	}
	ctx.SetFillColor(toColor(col))
	if radius > 0 {
		ctx.DrawPath(x, y, canvas.RoundedRectangle(w, h, radius))
		return
	}
	ctx.DrawPath(x, y, canvas.Rectangle(w, h))
}

func (r *Renderer) face(size float64, col layout.Color) (*canvas.FontFace, error) {
	if size <= 0 {
		return nil, tberrors.New(tberrors.ErrCodeMeasurementUnavailable, "字号必须为正数，实际 %g", size)
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	key := faceKey{size: size, color: col}
	if face, ok := r.faces[key]; ok {
		return face, nil
	}
	family, err := r.ensureFamily()
	if err != nil {
		return nil, err
	}
	face := family.Face(size*mmToPt, toColor(col), canvas.FontRegular, canvas.FontNormal)
	r.faces[key] = face
	return face, nil
}

// ensureFamily 加载配置的字体，失败时退回内置字体。调用方需持有 fontMu。
func (r *Renderer) ensureFamily() (*canvas.FontFamily, error) {
	if r.family != nil {
		return r.family, nil
	}
	family := canvas.NewFontFamily("tagboard")
	if err := loadInto(family, r.fontSrc); err != nil {
		fallback := canvas.NewFontFamily("tagboard-fallback")
		if fbErr := loadInto(fallback, fonts.Regular); fbErr != nil {
			return nil, tberrors.Wrap(tberrors.ErrCodeMeasurementUnavailable, err, "加载字体 %s 失败", r.fontSrc)
		}
		family = fallback
	}
	r.family = family
	return family, nil
}

func loadInto(family *canvas.FontFamily, src string) error {
	data, err := fonts.Load(src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, canvas.FontRegular)
}

func toColor(c layout.Color) color.Color {
	return c.NRGBA()
}

func encodePNG(c *canvas.Canvas) ([]byte, error) {
	img := rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeRender, err, "编码 PNG 失败")
	}
	return buf.Bytes(), nil
}

func encodePDF(c *canvas.Canvas, width, height float64) ([]byte, error) {
	var buf bytes.Buffer
	writer := pdf.New(&buf, width, height, nil)
	writer.SetInfo("识别词条", "", "", "", "tagboard")
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, tberrors.Wrap(tberrors.ErrCodeRender, err, "写入 PDF 失败")
	}
	return buf.Bytes(), nil
}

