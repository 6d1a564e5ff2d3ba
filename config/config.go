// Package config 读取 TOML 配置文件，在默认值之上覆盖排版主题与绘制参数。
//
// 示例：
//
//	[render]
//	engine = "gg"
//	padding = 10
//	decorations = ["res/bg/0.png", "res/bg/1.png"]
//
//	[theme]
//	width = 1000
//	[theme.thumbnail]
//	enabled = true
//	template = "res/chara/${key}.png"
//
//	[levels.6]
//	background = "#dc3545"
//	foreground = "white"
package config

import (
	"fmt"
	"maps"
	"math/rand"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	tberrors "github.com/ByLCY/tagboard/errors"
	"github.com/ByLCY/tagboard/fonts"
	"github.com/ByLCY/tagboard/layout"
	"github.com/ByLCY/tagboard/renderer"
)

const (
	EngineCanvas = "canvas"
	EngineGG     = "gg"
)

// Config 是完整配置。
type Config struct {
	Render Render       `toml:"render"`
	Theme  layout.Theme `toml:"theme"`
	// Levels 以字符串等级为键（TOML 表名只能是字符串），加载时合并进 Theme.Levels。
	Levels map[string]layout.LevelColors `toml:"levels"`
}

// Render 控制绘制阶段与资源加载。
type Render struct {
	Engine string `toml:"engine"`
	Format string `toml:"format"`
	// Font 是 fonts.Load 接受的字体来源。
	Font        string       `toml:"font"`
	Padding     float64      `toml:"padding"`
	Background  layout.Color `toml:"background"`
	Veil        layout.Color `toml:"veil"`
	Decorations []string     `toml:"decorations"`
	// DecorationScale 是装饰图宽度相对 min(宽, 高) 的比例。
	DecorationScale float64 `toml:"decoration_scale"`
	// Seed 为 0 时每次随机挑选装饰图。
	Seed        int64  `toml:"seed"`
	AssetDir    string `toml:"asset_dir"`
	Concurrency int    `toml:"concurrency"`
}

// Default 返回默认配置：1000 宽，灰色底，40% 白色罩层。
func Default() Config {
	return Config{
		Render: Render{
			Engine:          EngineCanvas,
			Format:          string(renderer.FormatPNG),
			Font:            fonts.Regular,
			Padding:         10,
			Background:      layout.MustColor("#ECEFF1"),
			Veil:            layout.MustColor("rgba(255,255,255,.4)"),
			DecorationScale: 0.7,
			AssetDir:        ".",
			Concurrency:     8,
		},
		Theme: layout.DefaultTheme(),
	}
}

// Load 读取 path 并覆盖默认值。未知的键视为配置错误。
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, tberrors.Wrap(tberrors.ErrCodeInvalidConfig, err, "解析配置文件 %s 失败", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, tberrors.New(tberrors.ErrCodeInvalidConfig, "配置文件 %s 含有未知的键: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.mergeLevels(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode 从 TOML 文本加载配置，供测试与内嵌配置使用。
func Decode(text string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(text, &cfg); err != nil {
		return Config{}, tberrors.Wrap(tberrors.ErrCodeInvalidConfig, err, "解析配置失败")
	}
	if err := cfg.mergeLevels(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeLevels() error {
	if len(c.Levels) == 0 {
		return nil
	}
	merged := maps.Clone(c.Theme.Levels)
	if merged == nil {
		merged = map[int]layout.LevelColors{}
	}
	for key, colors := range c.Levels {
		level, err := strconv.Atoi(key)
		if err != nil || level <= 0 {
			return tberrors.New(tberrors.ErrCodeInvalidConfig, "等级 %q 不是正整数", key)
		}
		merged[level] = colors
	}
	c.Theme.Levels = merged
	c.Levels = nil
	return nil
}

// Validate 检查配置的一致性。
func (c *Config) Validate() error {
	switch c.Render.Engine {
	case EngineCanvas, EngineGG:
	default:
		return tberrors.New(tberrors.ErrCodeInvalidConfig, "未知的渲染引擎 %q", c.Render.Engine)
	}
	format, err := renderer.ParseFormat(c.Render.Format)
	if err != nil {
		return tberrors.Wrap(tberrors.ErrCodeInvalidConfig, err, "输出格式无效")
	}
	if format == renderer.FormatPDF && c.Render.Engine != EngineCanvas {
		return tberrors.New(tberrors.ErrCodeInvalidConfig, "引擎 %s 不支持 PDF 输出", c.Render.Engine)
	}
	if c.Render.Padding < 0 {
		return tberrors.New(tberrors.ErrCodeInvalidConfig, "padding 不能为负数")
	}
	if c.Render.DecorationScale <= 0 || c.Render.DecorationScale > 1 {
		return tberrors.New(tberrors.ErrCodeInvalidConfig, "decoration_scale 必须在 (0, 1] 内")
	}
	if err := c.Theme.Validate(); err != nil {
		return tberrors.Wrap(tberrors.ErrCodeInvalidConfig, err, "主题配置无效")
	}
	return nil
}

// PaintOptions 转换为渲染器使用的绘制参数，装饰图由调用方加载后填入。
func (c *Config) PaintOptions() renderer.PaintOptions {
	return renderer.PaintOptions{
		Padding:         c.Render.Padding,
		Background:      c.Render.Background,
		Veil:            c.Render.Veil,
		DecorationScale: c.Render.DecorationScale,
	}
}

// PickDecoration 从候选装饰图中挑选一张；没有候选时返回空串。
func (r *Render) PickDecoration() string {
	if len(r.Decorations) == 0 {
		return ""
	}
	if r.Seed == 0 {
		return r.Decorations[rand.Intn(len(r.Decorations))]
	}
	rng := rand.New(rand.NewSource(r.Seed))
	return r.Decorations[rng.Intn(len(r.Decorations))]
}

// String 以 TOML 输出当前配置，便于调试。
func (c Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
