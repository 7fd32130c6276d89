package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/internal/app"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/ledger"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/pkg/scanner"
	"github.com/TanmayAgarwal123/Problem-Solving-Projects/tui"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <organized-folder> [restore-folder]",
	Short: "把整理后的文件复制回一个扁平目录",
	Long: `递归复制整理目录中的所有文件到恢复目录，重名时追加 _N 后缀。原文件保持不动。
未指定恢复目录时在整理目录旁创建 restored_files_{时间戳}。`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := &app.RestoreOptions{CommonOptions: common, OrganizedDir: args[0]}
		if len(args) > 1 {
			opts.RestoreDir = args[1]
		}
		opts.NoLedger, _ = cmd.Flags().GetBool("no-ledger")

		useTUI, _ := cmd.Flags().GetBool("tui")
		if !useTUI {
			stats, dir, err := app.RunRestore(cmd.Context(), opts)
			printRestore(cmd, stats, dir)
			return err
		}

		events := ledger.NewChanSink(64)
		opts.Progress = events
		opts.Quiet = true
		if err := quietLogger(common); err != nil {
			return err
		}

		var dir string
		stats, err := tui.Run(cmd.Context(), tui.Config{
			Title: "♻️ 恢复 " + opts.OrganizedDir,
			Count: func() (int, error) {
				return scanner.NewFileWalker(nil).CountFiles([]string{opts.OrganizedDir})
			},
			Events: events.Events(),
			Work: func(ctx context.Context) (internal.RunStats, error) {
				defer events.Close()
				s, d, err := app.RunRestore(ctx, opts)
				dir = d
				return s, err
			},
		})
		printRestore(cmd, stats, dir)
		return err
	},
}

func printRestore(cmd *cobra.Command, stats internal.RunStats, dir string) {
	if dir == "" {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已恢复 %d 个文件到 %s，失败 %d 个，耗时 %s\n",
		stats.Moved, dir, stats.Errors, stats.Duration())
}

func init() {
	restoreCmd.Flags().Bool("no-ledger", false, "不写入 SQLite 运行账本")
	restoreCmd.Flags().Bool("tui", false, "以终端界面显示实时进度")

	rootCmd.AddCommand(restoreCmd)
}
