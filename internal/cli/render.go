package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/tagboard/config"
	"github.com/ByLCY/tagboard/imageload"
	"github.com/ByLCY/tagboard/layout"
	"github.com/ByLCY/tagboard/renderer"
)

type renderOpts struct {
	pipelineOpts
	output string
	format string
	debug  string
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "排版识别结果并输出 PNG 或 PDF",
		Long: `读取 .json、.yaml 或 .tags 格式的识别结果，排版后绘制为报告图。
缩略图加载失败不会中断渲染，对应位置以占位色块代替。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &opts.pipelineOpts)
			if err != nil {
				return err
			}
			format, err := renderer.ParseFormat(cfg.Render.Format)
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), args[0], format, &opts, &cfg)
		},
	}

	addPipelineFlags(cmd, &opts.pipelineOpts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "输出文件，默认与输入同名")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "输出格式：png 或 pdf")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "同时把排版结果写为 JSON")
	return cmd
}

// outputPath 在未指定输出时用输入文件名替换扩展名。
func outputPath(output, input string, format renderer.Format) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + string(format)
}

func runRender(ctx context.Context, input string, format renderer.Format, opts *renderOpts, cfg *config.Config) error {
	logger := loggerFromContext(ctx)

	loader := imageload.New(cfg.Render.AssetDir)
	paint := cfg.PaintOptions()
	paint.Decoration = loadDecoration(ctx, loader, cfg, logger)
	eng, err := newEngine(cfg, paint)
	if err != nil {
		return err
	}

	res, err := buildLayout(ctx, input, cfg, eng, loader)
	if err != nil {
		return err
	}
	if opts.debug != "" {
		if err := writeDebug(res, opts.debug); err != nil {
			return err
		}
		logger.Infof("已输出排版 JSON：%s", opts.debug)
	}

	prog := newProgress(logger)
	data, err := eng.Render(ctx, res, format)
	if err != nil {
		return err
	}
	out := outputPath(opts.output, input, format)
	if err := writeFile(out, data); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("已生成 %s（%s 引擎）", out, cfg.Render.Engine))
	return nil
}

func writeDebug(result *layout.Result, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	if err := layout.WriteDebugJSON(result, path); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
