package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
)

var common app.CommonOptions

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "file-organizer",
	Short: "按类型、日期、大小或内容整理文件，并处理重复文件",
	Long: `file-organizer 是一个命令行工具，用于整理目录中的文件。

主要功能:
- 按扩展名、修改日期、文件大小或文件内容把文件分类到子目录
- 目标位置已有同名文件时比较内容：完全相同则丢弃源文件，否则自动重命名
- 可选的近似重复标注和基于特征的文件聚类
- 每个文件的处理结果写入 SQLite 运行账本，可随时查看统计
- 中断后再次运行会补记上次未完成的移动`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&common.ConfigPath, "config", "c", internal.DefaultConfigPath, "配置文件路径")
	flags.StringVar(&common.LogLevel, "log-level", "", "日志级别: trace, debug, info, warn, error（默认取配置文件）")
	flags.StringVar(&common.LogFile, "log-file", "", "日志文件路径")
	flags.BoolVarP(&common.Verbose, "verbose", "v", false, "显示调试日志")
}
