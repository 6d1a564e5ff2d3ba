package layout

// 该文件定义布局产出的绘制图元，供布局计算、渲染与调试 JSON 共用。
// 所有坐标位于同一个未缩放的内容坐标系中，外边距只在绘制时整体平移一次。

import (
	"encoding/json"
	"image"
)

// Point 是内容坐标系中的一个位置。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Kind 标识图元类型。
type Kind string

const (
	KindRect  Kind = "rect"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// Primitive 是渲染器消费的最小绘制单元：Rect、Text 或 Image。
// 图元是值类型，追加到输出列表后不再修改。
type Primitive interface {
	Kind() Kind
	// Translate 返回平移 (dx, dy) 后的副本。
	Translate(dx, dy float64) Primitive
}

// Rect 是一个可带圆角的实心矩形。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Color  Color   `json:"color"`
	Radius float64 `json:"radius,omitempty"`
}

func (Rect) Kind() Kind { return KindRect }

func (r Rect) Translate(dx, dy float64) Primitive {
	r.X += dx
	r.Y += dy
	return r
}

func (r Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindRect, plain(r)})
}

// Text 是一段单行文本，(X, Y) 为文本框左上角（textBaseline = top）。
type Text struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Content  string  `json:"content"`
}

func (Text) Kind() Kind { return KindText }

func (t Text) Translate(dx, dy float64) Primitive {
	t.X += dx
	t.Y += dy
	return t
}

func (t Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Kind `json:"type"`
		plain
	}{KindText, plain(t)})
}

// Image 是一张缩略图的槽位。Source 为 nil 表示加载失败，
// 渲染器此时用 Fallback 颜色绘制同尺寸的圆角矩形。
type Image struct {
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Ref      string      `json:"ref,omitempty"`
	Source   image.Image `json:"-"`
	Fallback Color       `json:"fallback"`
	Radius   float64     `json:"radius,omitempty"`
}

func (Image) Kind() Kind { return KindImage }

func (i Image) Translate(dx, dy float64) Primitive {
	i.X += dx
	i.Y += dy
	return i
}

// Loaded 报告图片数据是否可用。
func (i Image) Loaded() bool { return i.Source != nil }

func (i Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type   Kind `json:"type"`
		Loaded bool `json:"loaded"`
		plain
	}{KindImage, i.Loaded(), plain(i)})
}

// Result 是布局的最终产物：有序图元列表与内容区尺寸，交给渲染器一次性绘制。
type Result struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Primitives []Primitive `json:"primitives"`
}

// Count 统计某类图元的数量。
func (r *Result) Count(kind Kind) int {
	n := 0
	for _, p := range r.Primitives {
		if p.Kind() == kind {
			n++
		}
	}
	return n
}
