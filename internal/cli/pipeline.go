package cli

import (
	"context"
	"fmt"
	"image"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/tagboard/config"
	"github.com/ByLCY/tagboard/dsl"
	"github.com/ByLCY/tagboard/imageload"
	"github.com/ByLCY/tagboard/layout"
	"github.com/ByLCY/tagboard/renderer"
	canvasrenderer "github.com/ByLCY/tagboard/renderer/canvas"
	ggrenderer "github.com/ByLCY/tagboard/renderer/gg"
	"github.com/ByLCY/tagboard/report"
)

// pipelineOpts 是 render 与 layout 共用的参数，命令行显式给出的值覆盖配置文件。
type pipelineOpts struct {
	configPath  string
	engine      string
	width       float64
	padding     float64
	thumbnails  bool
	template    string
	assetDir    string
	decorations []string
	seed        int64
	concurrency int
}

func addPipelineFlags(cmd *cobra.Command, o *pipelineOpts) {
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "TOML 配置文件")
	cmd.Flags().StringVar(&o.engine, "engine", config.EngineCanvas, "渲染引擎：canvas 或 gg")
	cmd.Flags().Float64Var(&o.width, "width", 0, "内容区宽度")
	cmd.Flags().Float64Var(&o.padding, "padding", 0, "画布外边距")
	cmd.Flags().BoolVar(&o.thumbnails, "thumbnails", false, "条目带缩略图")
	cmd.Flags().StringVar(&o.template, "thumbnail-template", "", "缩略图引用模板，例如 chara/${key}.png")
	cmd.Flags().StringVar(&o.assetDir, "assets", "", "相对图片引用的根目录")
	cmd.Flags().StringArrayVar(&o.decorations, "background", nil, "候选装饰图，可重复")
	cmd.Flags().Int64Var(&o.seed, "seed", 0, "挑选装饰图的随机种子，0 表示每次随机")
	cmd.Flags().IntVar(&o.concurrency, "concurrency", 0, "同时加载的图片数量")
}

// loadConfig 读取配置文件（可选）并应用命令行覆盖。
func loadConfig(cmd *cobra.Command, o *pipelineOpts) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	changed := cmd.Flags().Changed
	if changed("engine") {
		cfg.Render.Engine = o.engine
	}
	if changed("width") {
		cfg.Theme.Width = o.width
	}
	if changed("padding") {
		cfg.Render.Padding = o.padding
	}
	if changed("thumbnails") {
		cfg.Theme.Thumbnail.Enabled = o.thumbnails
	}
	if changed("thumbnail-template") {
		cfg.Theme.Thumbnail.Template = o.template
	}
	if changed("assets") {
		cfg.Render.AssetDir = o.assetDir
	}
	if changed("background") {
		cfg.Render.Decorations = o.decorations
	}
	if changed("seed") {
		cfg.Render.Seed = o.seed
	}
	if changed("concurrency") {
		cfg.Render.Concurrency = o.concurrency
	}
	if changed("format") {
		if f, err := cmd.Flags().GetString("format"); err == nil {
			cfg.Render.Format = f
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadData 按扩展名选择 JSON、YAML 或 .tags 解析器。
func loadData(path string) (*report.Data, error) {
	if report.FormatFromPath(path) == report.FormatTags {
		return dsl.ParseFile(path)
	}
	return report.DecodeFile(path)
}

// engine 同时负责测量与绘制，保证两个阶段使用同一套字体度量。
type engine interface {
	renderer.Renderer
	layout.Measurer
}

func newEngine(cfg *config.Config, paint renderer.PaintOptions) (engine, error) {
	switch cfg.Render.Engine {
	case config.EngineCanvas:
		return canvasrenderer.NewRenderer(canvasrenderer.Options{Font: cfg.Render.Font, Paint: paint}), nil
	case config.EngineGG:
		return ggrenderer.NewRenderer(ggrenderer.Options{Font: cfg.Render.Font, Paint: paint}), nil
	default:
		return nil, fmt.Errorf("未知的渲染引擎 %q", cfg.Render.Engine)
	}
}

// loadDecoration 挑选并加载装饰图。装饰图只是点缀，失败时记录警告后继续。
func loadDecoration(ctx context.Context, loader *imageload.Loader, cfg *config.Config, logger *log.Logger) image.Image {
	ref := cfg.Render.PickDecoration()
	if ref == "" {
		return nil
	}
	img, err := loader.Load(ctx, ref)
	if err != nil {
		logger.Warn("装饰图加载失败，已跳过", "ref", ref, "err", err)
		return nil
	}
	logger.Debug("使用装饰图", "ref", ref)
	return img
}

// buildLayout 读取输入并完成排版。
func buildLayout(ctx context.Context, input string, cfg *config.Config, measurer layout.Measurer, loader *imageload.Loader) (*layout.Result, error) {
	logger := loggerFromContext(ctx)

	data, err := loadData(input)
	if err != nil {
		return nil, err
	}
	logger.Infof("已读取 %s：%d 个词条，%d 行", input, len(data.Words), len(data.Rows))

	measure := layout.NewMeasureCache(measurer)
	prog := newProgress(logger)
	res, err := layout.Build(ctx, data, layout.BuildOptions{
		Measurer:    measure,
		Images:      loader,
		Theme:       cfg.Theme,
		Logger:      logger,
		Concurrency: cfg.Render.Concurrency,
	})
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("排版完成：%gx%g，%d 个图元，测量 %d 种文本", res.Width, res.Height, len(res.Primitives), measure.Len()))
	return res, nil
}
