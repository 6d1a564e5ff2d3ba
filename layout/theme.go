package layout

import (
	"fmt"
	"sort"
)

// BoxStyle 描述一个文本盒的尺寸与配色。
type BoxStyle struct {
	FontSize   float64 `toml:"font_size"`
	PaddingX   float64 `toml:"padding_x"`
	Height     float64 `toml:"height"`
	Radius     float64 `toml:"radius"`
	Background Color   `toml:"background"`
	Foreground Color   `toml:"foreground"`
}

// LevelColors 是某个等级的背景色与文字色。
type LevelColors struct {
	Background Color `toml:"background"`
	Foreground Color `toml:"foreground"`
}

// ThumbnailStyle 控制条目盒是否带缩略图以及缩略图的内边距。
type ThumbnailStyle struct {
	Enabled bool `toml:"enabled"`
	// Height 是带缩略图时条目盒的高度。
	Height      float64 `toml:"height"`
	MarginY     float64 `toml:"margin_y"`
	MarginRight float64 `toml:"margin_right"`
	Radius      float64 `toml:"radius"`
	Fallback    Color   `toml:"fallback"`
	// Template 在条目没有 ImageRef 时用条目字段展开出图片引用，例如 "chara/${key}.png"。
	Template string `toml:"template"`
}

// Theme 汇总所有排版常量。等级配色作为静态配置传入，而不是全局表。
type Theme struct {
	Width float64 `toml:"width"`

	Title       string  `toml:"title"`
	TitleSize   float64 `toml:"title_size"`
	TitleColor  Color   `toml:"title_color"`
	TitleMargin float64 `toml:"title_margin"`

	Tag       BoxStyle            `toml:"tag"`
	Entry     BoxStyle            `toml:"entry"`
	Thumbnail ThumbnailStyle      `toml:"thumbnail"`
	Levels    map[int]LevelColors `toml:"-"`

	ItemGap        float64 `toml:"item_gap"`
	LineGap        float64 `toml:"line_gap"`
	TagColumnWidth float64 `toml:"tag_column_width"`
	TagGap         float64 `toml:"tag_gap"`
	RowPadding     float64 `toml:"row_padding"`
	ContentMargin  float64 `toml:"content_margin"`
	// RowTints[0] 用于偶数行，RowTints[1] 用于奇数行。
	RowTints [2]Color `toml:"row_tints"`
}

// DefaultTheme 返回默认排版常量。
func DefaultTheme() Theme {
	dark := MustColor("#212529")
	return Theme{
		Width:       1000,
		Title:       "识别词条:",
		TitleSize:   20,
		TitleColor:  dark,
		TitleMargin: 10,
		Tag: BoxStyle{
			FontSize:   14,
			PaddingX:   10,
			Height:     35,
			Radius:     3,
			Background: MustColor("#6c757d"),
			Foreground: White,
		},
		Entry: BoxStyle{
			FontSize: 14,
			PaddingX: 10,
			Height:   35,
			Radius:   3,
		},
		Thumbnail: ThumbnailStyle{
			Height:      40,
			MarginY:     3,
			MarginRight: 5,
			Radius:      3,
			Fallback:    White,
		},
		Levels: map[int]LevelColors{
			1: {Background: MustColor("#343a40"), Foreground: White},
			2: {Background: MustColor("#f8f9fa"), Foreground: dark},
			3: {Background: MustColor("#28a745"), Foreground: White},
			4: {Background: MustColor("#17a2b8"), Foreground: White},
			5: {Background: MustColor("#ffc107"), Foreground: dark},
			6: {Background: MustColor("#dc3545"), Foreground: White},
		},
		ItemGap:        10,
		LineGap:        10,
		TagColumnWidth: 120,
		TagGap:         10,
		RowPadding:     8,
		ContentMargin:  10,
		RowTints:       [2]Color{MustColor("rgba(0,0,0,.1)"), Transparent},
	}
}

// EntryHeight 返回条目盒的实际高度：带缩略图时更高。
func (t *Theme) EntryHeight() float64 {
	if t.Thumbnail.Enabled {
		return t.Thumbnail.Height
	}
	return t.Entry.Height
}

// RowTint 返回第 index 行的背景色，相邻两行一定不同。
func (t *Theme) RowTint(index int) Color {
	return t.RowTints[index%2]
}

// LevelColors 查找等级配色，未定义的等级属于输入错误。
func (t *Theme) LevelColors(level int) (LevelColors, bool) {
	c, ok := t.Levels[level]
	return c, ok
}

// Validate 检查会导致布局无意义的配置。
func (t *Theme) Validate() error {
	if t.Width <= 0 {
		return fmt.Errorf("页面宽度必须为正数，实际 %g", t.Width)
	}
	if t.TagColumnWidth >= t.Width {
		return fmt.Errorf("词条列宽 %g 不能超过页面宽度 %g", t.TagColumnWidth, t.Width)
	}
	if t.Tag.Height <= 0 || t.Entry.Height <= 0 {
		return fmt.Errorf("盒子高度必须为正数")
	}
	if t.Thumbnail.Enabled && t.Thumbnail.Height-2*t.Thumbnail.MarginY <= 0 {
		return fmt.Errorf("缩略图高度 %g 小于上下边距之和", t.Thumbnail.Height)
	}
	if t.RowTints[0] == t.RowTints[1] {
		return fmt.Errorf("相邻行背景色必须不同")
	}
	if len(t.Levels) == 0 {
		return fmt.Errorf("缺少等级配色")
	}
	return nil
}

// LevelKeys 返回已配置的等级，按升序排列。
func (t *Theme) LevelKeys() []int {
	keys := make([]int, 0, len(t.Levels))
	for k := range t.Levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
