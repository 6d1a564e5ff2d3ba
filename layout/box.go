package layout

import (
	"image"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/report"
)

// Box 是一个已知尺寸、可重新定位的绘制单元。
// 图元以相对于盒子原点的偏移保存，Primitives 按当前原点换算出绝对坐标，
// 因此 Relocate 只依赖新原点，重复调用结果相同。
type Box struct {
	Width  float64
	Height float64

	origin Point
	parts  []Primitive
}

func newBox(origin Point, width, height float64, parts ...Primitive) *Box {
	return &Box{Width: width, Height: height, origin: origin, parts: parts}
}

// Origin 返回盒子当前的左上角。
func (b *Box) Origin() Point { return b.origin }

// Relocate 把盒子移动到 p，不重新测量。
func (b *Box) Relocate(p Point) { b.origin = p }

// Primitives 返回盒子在当前原点下的图元，调用方决定何时提交到输出列表。
func (b *Box) Primitives() []Primitive {
	out := make([]Primitive, len(b.parts))
	for i, part := range b.parts {
		out[i] = part.Translate(b.origin.X, b.origin.Y)
	}
	return out
}

// Thumbnail 是条目缩略图的加载结果，Image 为 nil 表示加载失败或没有引用。
type Thumbnail struct {
	Ref   string
	Image image.Image
}

// naturalSize 返回图片的原始像素尺寸，无效图片返回 ok=false。
func (t Thumbnail) naturalSize() (w, h float64, ok bool) {
	if t.Image == nil {
		return 0, 0, false
	}
	b := t.Image.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return 0, 0, false
	}
	return float64(b.Dx()), float64(b.Dy()), true
}

// boxBuilder 生成三种盒子：词条盒、条目盒、带缩略图的条目盒。
type boxBuilder struct {
	measure Measurer
	theme   *Theme
}

// textBox 构造矩形加垂直居中文本的盒子。
func (b *boxBuilder) textBox(at Point, text string, style BoxStyle, height float64, colors LevelColors) (*Box, error) {
	m, err := b.measure.MeasureText(text, style.FontSize)
	if err != nil {
		return nil, err
	}
	width := m.Width + style.PaddingX*2
	rect := Rect{Width: width, Height: height, Color: colors.Background, Radius: style.Radius}
	label := Text{
		X:        style.PaddingX,
		Y:        (height - m.Height) / 2,
		FontSize: style.FontSize,
		Color:    colors.Foreground,
		Content:  text,
	}
	return newBox(at, width, height, rect, label), nil
}

// TagBox 构造灰底白字的词条盒。
func (b *boxBuilder) TagBox(at Point, tag string) (*Box, error) {
	st := b.theme.Tag
	return b.textBox(at, tag, st, st.Height, LevelColors{Background: st.Background, Foreground: st.Foreground})
}

// EntryBox 按等级配色构造条目盒；主题开启缩略图时改为图片加文字的形式。
func (b *boxBuilder) EntryBox(at Point, e report.Entry, thumb Thumbnail) (*Box, error) {
	colors, ok := b.theme.LevelColors(e.Level)
	if !ok {
		return nil, tberrors.New(tberrors.ErrCodeInvalidInput, "条目 %s 的等级 %d 没有对应配色", e.Label, e.Level)
	}
	if !b.theme.Thumbnail.Enabled {
		return b.textBox(at, e.Label, b.theme.Entry, b.theme.Entry.Height, colors)
	}
	return b.imageTextBox(at, e.Label, thumb, colors)
}

// imageTextBox 构造左侧缩略图、右侧文字的条目盒。
// 缩略图高度固定，宽度按图片自身宽高比推算；加载失败时退化为正方形占位。
func (b *boxBuilder) imageTextBox(at Point, label string, thumb Thumbnail, colors LevelColors) (*Box, error) {
	st := b.theme.Entry
	ts := b.theme.Thumbnail
	m, err := b.measure.MeasureText(label, st.FontSize)
	if err != nil {
		return nil, err
	}

	height := ts.Height
	imageHeight := height - ts.MarginY*2
	imageWidth := imageHeight
	source := thumb.Image
	if w, h, ok := thumb.naturalSize(); ok {
		imageWidth = imageHeight * (w / h)
	} else {
		source = nil
	}
	width := imageWidth + ts.MarginRight + m.Width + st.PaddingX*2

	rect := Rect{Width: width, Height: height, Color: colors.Background, Radius: st.Radius}
	img := Image{
		X:        st.PaddingX,
		Y:        ts.MarginY,
		Width:    imageWidth,
		Height:   imageHeight,
		Ref:      thumb.Ref,
		Source:   source,
		Fallback: ts.Fallback,
		Radius:   ts.Radius,
	}
	text := Text{
		X:        st.PaddingX + imageWidth + ts.MarginRight,
		Y:        (height - m.Height) / 2,
		FontSize: st.FontSize,
		Color:    colors.Foreground,
		Content:  label,
	}
	return newBox(at, width, height, rect, img, text), nil
}
