package layout

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGB 数值与 0-1 的不透明度。
type Color struct {
	R uint8
	G uint8
	B uint8
	A float64
}

var (
	White       = Color{R: 255, G: 255, B: 255, A: 1}
	Black       = Color{A: 1}
	Transparent = Color{}
)

// RGB 返回完全不透明的颜色。
func RGB(r, g, b uint8) Color { return Color{R: r, G: g, B: b, A: 1} }

// NRGBA 转换为标准库颜色（非预乘）。
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(clamp01(c.A) * 255))}
}

// IsTransparent 报告该颜色是否完全透明，渲染器可以跳过绘制。
func (c Color) IsTransparent() bool { return c.A <= 0 }

// String 不透明时输出 #rrggbb，否则输出 rgba()。
func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'g', -1, 64))
}

// MarshalText 使颜色在 JSON 与 TOML 中都以字符串表示。
func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor 支持 #rgb、#rrggbb、#rrggbbaa、rgb()、rgba() 以及 white/black/transparent。
func ParseColor(value string) (Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "white":
		return White, nil
	case "black":
		return Black, nil
	case "transparent":
		return Transparent, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v[1:])
	}
	if strings.HasPrefix(v, "rgb") {
		return parseFuncColor(v)
	}
	return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
}

// MustColor 用于静态配置常量，解析失败时 panic。
func MustColor(value string) Color {
	c, err := ParseColor(value)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHexColor(hex string) (Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("颜色值 #%s 无法解析", hex)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 #%s 无法解析: %w", hex, err)
	}
	if len(hex) == 6 {
		return RGB(uint8(n>>16), uint8(n>>8), uint8(n)), nil
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: float64(uint8(n)) / 255}, nil
}

func parseFuncColor(v string) (Color, error) {
	open := strings.IndexByte(v, '(')
	if open < 0 || !strings.HasSuffix(v, ")") {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
	}
	name := strings.TrimSpace(v[:open])
	parts := strings.Split(v[open+1:len(v)-1], ",")
	want := 3
	if name == "rgba" {
		want = 4
	} else if name != "rgb" {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", v)
	}
	if len(parts) != want {
		return Color{}, fmt.Errorf("颜色值 %s 需要 %d 个分量", v, want)
	}
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("颜色值 %s 的第 %d 个分量无效", v, i+1)
		}
		channels[i] = uint8(n)
	}
	alpha := 1.0
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("颜色值 %s 的不透明度无效", v)
		}
		alpha = a
	}
	return Color{R: channels[0], G: channels[1], B: channels[2], A: alpha}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
