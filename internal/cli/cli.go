// Package cli 实现 tagboard 命令行：
//
//   - render：读取识别结果，排版并输出 PNG/PDF
//   - layout：只做排版，把图元列表以 JSON 输出
//
// 所有命令支持 --verbose (-v) 输出调试日志，日志器通过 context 传递。
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion 设置 --version 显示的信息，通常由 main 在构建时注入。
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute 运行命令行并返回第一个失败命令的错误。
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "tagboard",
		Short:        "tagboard 把识别词条排版为报告图",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("tagboard %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newLayoutCmd())
	return root
}
