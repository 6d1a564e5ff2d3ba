package cli

import (
	"bytes"
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ByLCY/tagboard/config"
	"github.com/ByLCY/tagboard/imageload"
	"github.com/ByLCY/tagboard/layout"
)

type layoutOpts struct {
	pipelineOpts
	output string
}

func newLayoutCmd() *cobra.Command {
	var opts layoutOpts

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "只排版，输出图元列表 JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &opts.pipelineOpts)
			if err != nil {
				return err
			}
			return runLayout(cmd.Context(), args[0], &cfg, opts.output, cmd.OutOrStdout())
		},
	}

	addPipelineFlags(cmd, &opts.pipelineOpts)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "输出文件，默认写到标准输出")
	return cmd
}

func runLayout(ctx context.Context, input string, cfg *config.Config, output string, stdout io.Writer) error {
	eng, err := newEngine(cfg, cfg.PaintOptions())
	if err != nil {
		return err
	}
	res, err := buildLayout(ctx, input, cfg, eng, imageload.New(cfg.Render.AssetDir))
	if err != nil {
		return err
	}
	if output != "" {
		return writeDebug(res, output)
	}
	var buf bytes.Buffer
	if err := layout.EncodeJSON(&buf, res); err != nil {
		return err
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}

