package layout

import (
	"context"
	"image"

	"github.com/charmbracelet/log"
)

// BuildOptions 配置布局阶段所需的依赖：测量后端、图片服务与主题。
type BuildOptions struct {
	Measurer Measurer
	// Images 为 nil 时所有缩略图都会降级为占位矩形。
	Images ImageSource
	Theme  Theme
	Logger *log.Logger
	// Concurrency 限制同时进行的图片加载数量，<=0 时使用 defaultConcurrency。
	Concurrency int
}

// TextMetrics 是一段文本在给定字号下的宽高。
type TextMetrics struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Measurer 负责文本测量。渲染器实现该接口，使布局与绘制使用同一套字体度量。
type Measurer interface {
	MeasureText(text string, fontSize float64) (TextMetrics, error)
}

// ImageSource 按引用加载并解码图片。实现需要支持并发调用。
type ImageSource interface {
	Load(ctx context.Context, ref string) (image.Image, error)
}
